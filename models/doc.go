// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the ballot type and its YAML document form.

# Ballot

A Ballot holds one question, its options in display order, and one vote
count per option. It is keyed by PIN:

	b := models.NewBallot("1234", "Lunch?", []string{"Pizza", "Sushi"})
	_ = b.Vote("Pizza")    // Votes["Pizza"] == 1
	_ = b.Vote("Tacos")    // ErrUnknownOption, nothing changes

The key set of Votes always equals the option set. Counts only go down
through Reset, which zeroes them, or Redefine, which drops options that
are no longer listed:

	b.Redefine("Lunch today?", []string{"Pizza", "Ramen"})
	// Pizza keeps its count, Ramen starts at 0, Sushi is gone

# PINs

PINs are 1-64 characters of letters, digits, '-' and '_'. The file
store uses the PIN as a file name, so ValidatePIN runs on every PIN
entered or imported.

# YAML Documents

The raw import form and the file store share one format:

	PIN: "1234"
	question: Lunch?
	options:
	  - Pizza
	  - Sushi
	votes:
	  Pizza: 3
	  Sushi: 1

ParseDocument requires PIN, question and options. votes is optional.
Validation failures are returned as *ValidationError so handlers can
show them to the user.
*/
package models
