package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"odootest/pkg/logging"
)

// Store holds the effective configuration of one workspace.
type Store struct {
	mu     sync.RWMutex
	paths  Paths
	config Config
}

// NewStore loads the configuration located by p.
func NewStore(p Paths) (*Store, error) {
	s := &Store{paths: p}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already built configuration. Set is not
// supported on a static store.
func NewStaticStore(c Config) *Store {
	return &Store{config: c}
}

// Paths returns the file locations of the store.
func (s *Store) Paths() Paths {
	return s.paths
}

// Reload re-reads every layer.
func (s *Store) Reload() error {
	c, err := LoadConfig(s.paths)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.config = c
	s.mu.Unlock()
	return nil
}

// Config returns a copy of the effective configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Get returns the value of key.
func (s *Store) Get(key Key) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Value(key)
}

// Set stores value under key in the file of scope and reloads the store.
// The value must decode into the type of the key.
func (s *Store) Set(key Key, value any, scope Scope) error {
	if !IsKnown(key) {
		return unknownKey(key)
	}
	if s.paths.Workspace == "" {
		return fmt.Errorf("configuration is not backed by files")
	}
	path, err := s.paths.File(scope)
	if err != nil {
		return err
	}

	doc, err := readDocument(path)
	if err != nil {
		return &LoadError{FilePath: path, Source: scope, Err: err}
	}
	doc[string(key)] = value

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	var probe Config
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logging.Info("Config", "Set %s in %s configuration", key, scope)
	return s.Reload()
}

// SetMany stores several keys at once in the file of scope.
func (s *Store) SetMany(values map[Key]any, scope Scope) error {
	for k, v := range values {
		if err := s.Set(k, v, scope); err != nil {
			return err
		}
	}
	return nil
}

func readDocument(path string) (map[string]any, error) {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// ParseValue decodes a command line value for key: YAML flow syntax for
// list and map keys, the literal text otherwise.
func ParseValue(key Key, raw string) (any, error) {
	switch key {
	case KeyAddonsPath, KeyUpgradePath, KeyMutedTopics, KeyWorkspaceFolders:
		var v []string
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%s expects a list such as [a, b]: %w", key, err)
		}
		return v, nil
	case KeyStandardTestLayout:
		var v [][]string
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%s expects a list of lists such as [[run, cleanup]]: %w", key, err)
		}
		return v, nil
	case KeyDumpMirror:
		var v DumpMirror
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%s expects a map such as {endpoint: ..., bucket: ...}: %w", key, err)
		}
		return v, nil
	}
	if !IsKnown(key) {
		return nil, unknownKey(key)
	}
	return raw, nil
}
