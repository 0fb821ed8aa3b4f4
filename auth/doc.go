// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides signing and hashing utilities.

# Signed Values

Session cookies carry the session ID followed by an HMAC-SHA256 of it:

	token := auth.SignValue(sessionID, secret)
	id, err := auth.VerifySignedValue(token, secret)

The signature is URL-safe base64 encoded without padding. A cookie that
was not produced with the server's secret fails with ErrInvalidSignature;
a malformed one fails with ErrInvalidToken.

# IP Hashing

For privacy-preserving request logs:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
