//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, scripts, postgres).
type Test mg.Namespace

// All runs every test. Postgres tests start a container and skip without Docker.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs all packages in short mode, which skips container-backed tests.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Scripts runs the CLI testscript scenarios in cmd/taskboard/testdata/script.
func (Test) Scripts() error {
	return sh.RunV(binGo, "test", "-v", "-run", "TestScripts", cmdDir)
}

// Postgres runs the hosted adapter against a throwaway Postgres container.
func (Test) Postgres() error {
	return sh.RunV(binGo, "test", "-v", "-count=1", "./internal/postgres/...")
}
