// Copyright © 2026 XBase Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns the xbase data directory.
//
// Priority:
// 1. XBASE_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.xbase (default)
//
// The returned path is always absolute. Tilde (~) is expanded to the
// user's home directory; relative paths are made absolute.
//
// This reads os.Getenv directly, not viper: it is needed to locate the
// config file before viper is initialized.
func GetDataDir() string {
	if dataDir := os.Getenv("XBASE_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".xbase"
	}
	return filepath.Join(homeDir, ".xbase")
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
