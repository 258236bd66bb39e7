package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"odootest/internal/version"
)

var databaseNamePattern = regexp.MustCompile(`^[\w-]+$`)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   Key
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field Key, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Check validates the effective configuration of the store.
func (s *Store) Check() ValidationErrors {
	return Validate(s.Config())
}

// Validate returns every problem found in c, or nil.
func Validate(c Config) ValidationErrors {
	var errs ValidationErrors

	switch {
	case c.DatabaseName == "":
		errs.Add(KeyDatabaseName, "Database name cannot be empty")
	case !databaseNamePattern.MatchString(c.DatabaseName):
		errs.Add(KeyDatabaseName, "Database name can only contain letters, numbers, hyphens and underscores", c.DatabaseName)
	}

	if c.UpgradeFrom != "" && c.UpgradeFrom != UpgradeFromCurrent {
		if _, ok := version.Parse(c.UpgradeFrom); !ok || strings.Contains(c.UpgradeFrom, "~") {
			errs.Add(KeyUpgradeFrom, "Upgrade from version is not a valid Odoo branch name", c.UpgradeFrom)
		}
	}

	switch {
	case strings.TrimSpace(c.OdooBinPath) == "":
		errs.Add(KeyOdooBinPath, "Odoo binary path cannot be empty")
	case !pathExists(c.OdooBinPath):
		errs.Add(KeyOdooBinPath, fmt.Sprintf("Odoo binary path does not exist: %s", c.OdooBinPath), c.OdooBinPath)
	case filepath.Base(c.OdooBinPath) != "odoo-bin":
		errs.Add(KeyOdooBinPath, fmt.Sprintf("File name should be 'odoo-bin', found: %s", filepath.Base(c.OdooBinPath)), c.OdooBinPath)
	}

	if len(c.AddonsPath) == 0 {
		errs.Add(KeyAddonsPath, "At least one valid addons path is required")
	}
	checkDirs(&errs, KeyAddonsPath, "Addons path", c.AddonsPath)

	if c.ConfigPath != "" && !isFile(c.ConfigPath) {
		errs.Add(KeyConfigPath, fmt.Sprintf("Odoo config file does not exist: %s", c.ConfigPath), c.ConfigPath)
	}

	checkDirs(&errs, KeyUpgradePath, "Upgrade path", c.UpgradePath)

	if len(c.StandardTestLayout) == 0 {
		errs.Add(KeyStandardTestLayout, "At least one button layer is required")
	}
	for i, layer := range c.StandardTestLayout {
		if len(layer) == 0 {
			errs.Add(KeyStandardTestLayout, fmt.Sprintf("Button layer %d is empty", i))
		}
		for _, b := range layer {
			if !slices.Contains(Buttons, b) {
				errs.Add(KeyStandardTestLayout, fmt.Sprintf("Unknown button %q in layer %d, expected one of %s", b, i, strings.Join(Buttons, ", ")), b)
			}
		}
	}

	if c.DumpMirror.Endpoint != "" && c.DumpMirror.Bucket == "" {
		errs.Add(KeyDumpMirror, "Dump mirror bucket cannot be empty when an endpoint is set")
	}

	return errs
}

func checkDirs(errs *ValidationErrors, key Key, label string, dirs []string) {
	for _, d := range dirs {
		switch {
		case !pathExists(d):
			errs.Add(key, fmt.Sprintf("%s does not exist: %s", label, d), d)
		case !isDir(d):
			errs.Add(key, fmt.Sprintf("%s is not a directory: %s", label, d), d)
		}
	}
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
