package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"odootest/internal/execx"
	"odootest/internal/notify"
	"odootest/pkg/logging"
)

const subsystem = "Database"

// ErrDumpNotFound is returned when a named artifact does not exist.
var ErrDumpNotFound = errors.New("dump not found")

// Catalog answers whether a database exists on the server.
type Catalog interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
}

// Options configures a Manager.
type Options struct {
	DatabaseName string
	DumpRoot     string
	// DSN is an optional libpq keyword/value string. Its connection
	// parameters are passed to the client tools as PG* variables.
	DSN string
}

// Manager runs lifecycle operations against one database.
type Manager struct {
	runner  execx.Runner
	sink    notify.Sink
	catalog Catalog
	name    string
	root    string
	env     []string
}

// NewManager creates a manager. catalog may be nil, in which case
// DatabaseExists always reports false.
func NewManager(runner execx.Runner, sink notify.Sink, catalog Catalog, opts Options) (*Manager, error) {
	if opts.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}
	env, err := clientEnv(opts.DSN)
	if err != nil {
		return nil, err
	}
	return &Manager{
		runner:  runner,
		sink:    sink,
		catalog: catalog,
		name:    opts.DatabaseName,
		root:    opts.DumpRoot,
		env:     env,
	}, nil
}

// Name returns the target database name.
func (m *Manager) Name() string {
	return m.name
}

// Drop removes the database, disconnecting its sessions. A missing
// database is not an error.
func (m *Manager) Drop(ctx context.Context) error {
	logging.Info(subsystem, "Dropping database %s", m.name)
	if _, err := m.run(ctx, "dropdb", m.name, "--if-exists", "--force"); err != nil {
		m.sink.Error(fmt.Sprintf("Failed to drop database: %v", err))
		return err
	}
	return nil
}

// Create creates an empty UTF8 database with C collation.
func (m *Manager) Create(ctx context.Context) error {
	logging.Info(subsystem, "Creating database %s", m.name)
	if _, err := m.run(ctx, "createdb", m.name,
		"--encoding=UTF8", "--lc-collate=C", "--lc-ctype=C", "--template=template0"); err != nil {
		m.sink.Error(fmt.Sprintf("Failed to create database: %v", err))
		return err
	}
	return nil
}

// Restore loads the named artifact into the (empty) database.
func (m *Manager) Restore(ctx context.Context, dumpName string) error {
	file, err := m.DumpFile(dumpName)
	if err != nil {
		m.sink.Error(fmt.Sprintf("Failed to restore database: %v", err))
		return err
	}
	if _, err := os.Stat(file); err != nil {
		err = fmt.Errorf("%w: %s", ErrDumpNotFound, dumpName)
		m.sink.Error(fmt.Sprintf("Failed to restore database: %v", err))
		return err
	}
	m.sink.Info(notify.TopicDatabase, fmt.Sprintf("Restore %s from %s", m.name, dumpName))
	if _, err := m.run(ctx, "pg_restore", "-d", m.name, file); err != nil {
		m.sink.Error(fmt.Sprintf("Failed to restore database: %v", err))
		return err
	}
	return nil
}

// Dump writes the database into the named artifact in custom format.
func (m *Manager) Dump(ctx context.Context, dumpName string) error {
	file, err := m.DumpFile(dumpName)
	if err != nil {
		m.sink.Error(fmt.Sprintf("Failed to dump database: %v", err))
		return err
	}
	m.sink.Info(notify.TopicDatabase, fmt.Sprintf("Dump %s to %s", m.name, dumpName))
	if _, err := m.run(ctx, "pg_dump", "-Fc", "-f", file, m.name); err != nil {
		m.sink.Error(fmt.Sprintf("Failed to dump database: %v", err))
		return err
	}
	return nil
}

// DumpExists reports whether the named artifact is on disk.
func (m *Manager) DumpExists(dumpName string) bool {
	file, err := m.DumpFile(dumpName)
	if err != nil {
		return false
	}
	_, err = os.Stat(file)
	return err == nil
}

// DeleteDump removes the named artifact and returns how many files were
// removed, 0 or 1.
func (m *Manager) DeleteDump(dumpName string) int {
	if !m.DumpExists(dumpName) {
		return 0
	}
	file, _ := m.DumpFile(dumpName)
	if err := os.Remove(file); err != nil {
		logging.Warn(subsystem, "Failed to delete %s: %v", file, err)
		return 0
	}
	logging.Info(subsystem, "Deleted dump %s", file)
	return 1
}

// DatabaseExists probes the server for the target database. Probe failures
// are logged and reported as false.
func (m *Manager) DatabaseExists(ctx context.Context) bool {
	if m.catalog == nil {
		return false
	}
	ok, err := m.catalog.DatabaseExists(ctx, m.name)
	if err != nil {
		logging.Warn(subsystem, "Cannot check whether %s exists: %v", m.name, err)
		return false
	}
	return ok
}

// DumpDir returns the artifact directory of the database, creating it.
func (m *Manager) DumpDir() (string, error) {
	if m.root == "" {
		return "", fmt.Errorf("dump path is not configured")
	}
	dir := filepath.Join(m.root, m.name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating dump directory %s: %w", dir, err)
	}
	return dir, nil
}

// DumpFile returns the path of the named artifact.
func (m *Manager) DumpFile(dumpName string) (string, error) {
	if dumpName == "" || dumpName != filepath.Base(dumpName) {
		return "", fmt.Errorf("invalid dump name %q", dumpName)
	}
	dir, err := m.DumpDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dumpName), nil
}

// Artifact describes one dump file.
type Artifact struct {
	Name    string    `json:"name" yaml:"name"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modTime" yaml:"modTime"`
}

// ListDumps returns the artifacts of the database sorted by name.
func (m *Manager) ListDumps() ([]Artifact, error) {
	dir, err := m.DumpDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Manager) run(ctx context.Context, name string, args ...string) (execx.Output, error) {
	return m.runner.Run(ctx, execx.Command{Name: name, Args: args, Env: m.env})
}

// clientEnv maps the connection parameters of dsn to PG* variables.
func clientEnv(dsn string) ([]string, error) {
	if dsn == "" {
		return nil, nil
	}
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}
	var env []string
	if cfg.Host != "" {
		env = append(env, "PGHOST="+cfg.Host)
	}
	if cfg.Port != 0 {
		env = append(env, "PGPORT="+strconv.Itoa(int(cfg.Port)))
	}
	if cfg.User != "" {
		env = append(env, "PGUSER="+cfg.User)
	}
	if cfg.Password != "" {
		env = append(env, "PGPASSWORD="+cfg.Password)
	}
	return env, nil
}
