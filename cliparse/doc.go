// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration parsing from CLI flags and environment.

# Usage

Parse configuration from command line arguments:

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

# Configuration Priority

Values are resolved in order (first wins):

 1. CLI flags
 2. Environment variables
 3. .env file (only fills variables that are not already set)
 4. Default values

# Available Options

	Flag               Env Variable                 Default                      Required
	-p                 PORT                         3318                         No
	-t                 STORE_TYPE                   sqlite                       No
	-d                 DATABASE_URL                 ./questions_bank/survey.db   postgres only
	-data-dir          DATA_DIR                     ./questions_bank             No
	-session-lifetime  PERMANENT_SESSION_LIFETIME   10 (minutes)                 No
	-session-secret    SESSION_SECRET               -                            Yes

# Store Types

  - sqlite: one shared table in a local SQLite file (WAL mode)
  - postgres: the same table in PostgreSQL
  - file: one YAML file per PIN under -data-dir

# Security Note

The session secret signs session cookies. Prefer environment variables
over CLI flags, which may be visible in process listings.
*/
package cliparse
