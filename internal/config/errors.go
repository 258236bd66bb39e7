package config

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned for keys that are not part of AllKeys.
var ErrUnknownKey = errors.New("unknown configuration key")

func unknownKey(k Key) error {
	return fmt.Errorf("%w: %s", ErrUnknownKey, k)
}

// LoadError is returned when a settings file exists but cannot be read or parsed.
type LoadError struct {
	FilePath string `json:"filePath"`
	Source   Scope  `json:"source"`
	Err      error  `json:"-"`
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Source, e.FilePath, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
