// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config assembles the collector configuration.
//
// [Load] layers its sources in a fixed order, each overriding the one
// before:
//
//  1. [Default]
//  2. a config file, YAML (.yaml, .yml) or JSON with comments (.json,
//     .jsonc)
//  3. a dotenv file, which never replaces variables already set in the
//     process environment
//  4. HEIMDALL_* environment variables, named after the file keys:
//     HEIMDALL_STORAGE_PATH sets storage_path
//  5. command-line flags the user set explicitly (see [RegisterFlags])
//
// Path fields then have ${VAR} and ${VAR:-default} expanded, and the
// result is validated. Every failed constraint is reported as a
// [FieldError], joined into one error.
//
// The configuration is read once at startup. Nothing in the collector
// reloads or mutates it afterwards.
package config
