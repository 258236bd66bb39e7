// Package registry queries the module registry of an Odoo database and
// talks to the PostgreSQL server for catalog probes and notifications.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"odootest/pkg/logging"
)

const subsystem = "Registry"

// MaintenanceDatabase is the database used for catalog queries and for the
// notification bus of the hot_test addon.
const MaintenanceDatabase = "postgres"

const (
	moduleInstalledQuery = `SELECT 1 FROM ir_module_module WHERE name = $1 AND state = 'installed'`
	testDataQuery        = `SELECT 1 FROM upgrade_test_data WHERE key LIKE $1 LIMIT 1`
	databaseExistsQuery  = `SELECT 1 FROM pg_database WHERE datname = $1`
	notifyQuery          = `SELECT pg_notify($1, $2)`
	removeModulesQuery   = `UPDATE ir_module_module SET state = 'uninstalled' WHERE name = ANY($1)`
)

// Result of a registry lookup. Err is set when the query could not be
// answered; Found is then false.
type Result struct {
	Found bool
	Err   error
}

// QueryFailed reports whether the lookup could not be answered.
func (r Result) QueryFailed() bool {
	return r.Err != nil
}

// Client opens a short-lived connection per call. The target database is
// dropped and recreated between calls, so no pool is kept.
type Client struct {
	baseDSN string
}

// NewClient creates a client. baseDSN is a libpq keyword/value string or a
// postgres:// URL without database; empty uses the PG* environment.
func NewClient(baseDSN string) *Client {
	return &Client{baseDSN: strings.TrimSpace(baseDSN)}
}

// DSN returns the connection string for database.
func (c *Client) DSN(database string) string {
	return WithDatabase(c.baseDSN, database)
}

// WithDatabase returns base with its database set to database.
func WithDatabase(base, database string) string {
	if strings.HasPrefix(base, "postgres://") || strings.HasPrefix(base, "postgresql://") {
		u, err := url.Parse(base)
		if err == nil {
			u.Path = "/" + database
			return u.String()
		}
	}
	if base == "" {
		return "dbname=" + quoteValue(database)
	}
	return base + " dbname=" + quoteValue(database)
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (c *Client) open(ctx context.Context, database string) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DSN(database))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (c *Client) exists(ctx context.Context, database, query string, args ...any) Result {
	db, err := c.open(ctx, database)
	if err != nil {
		return Result{Err: fmt.Errorf("connecting to %s: %w", database, err)}
	}
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Result{}
	case err != nil:
		return Result{Err: err}
	}
	return Result{Found: true}
}

// IsModuleInstalled looks module up in ir_module_module of database.
func (c *Client) IsModuleInstalled(ctx context.Context, database, module string) Result {
	r := c.exists(ctx, database, moduleInstalledQuery, module)
	if r.QueryFailed() {
		logging.Debug(subsystem, "Module lookup of %s in %s failed: %v", module, database, r.Err)
	}
	return r
}

// IsUpgradeTestPrepared reports whether upgrade_test_data holds the entry
// written by the prepare step of class.
func (c *Client) IsUpgradeTestPrepared(ctx context.Context, database, module, class string) Result {
	r := c.exists(ctx, database, testDataQuery, TestDataKeyPattern(module, class))
	if r.QueryFailed() {
		logging.Debug(subsystem, "Upgrade test data lookup of %s.%s in %s failed: %v", module, class, database, r.Err)
	}
	return r
}

// TestDataKeyPattern is the LIKE pattern of the upgrade test data key of class.
func TestDataKeyPattern(module, class string) string {
	return module + ".tests.%." + class
}

// DatabaseExists reports whether name is in pg_database.
func (c *Client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	r := c.exists(ctx, MaintenanceDatabase, databaseExistsQuery, name)
	return r.Found, r.Err
}

// Notify sends payload on channel through the maintenance database.
func (c *Client) Notify(ctx context.Context, channel, payload string) error {
	db, err := c.open(ctx, MaintenanceDatabase)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", MaintenanceDatabase, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, notifyQuery, channel, payload); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	logging.Debug(subsystem, "Sent notification on %s: %s", channel, payload)
	return nil
}

// RemoveModules marks modules as uninstalled in database so that a helper
// addon loaded for one session does not stay in the registry.
func (c *Client) RemoveModules(ctx context.Context, database string, modules []string) error {
	db, err := c.open(ctx, database)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", database, err)
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, removeModulesQuery, modules)
	if err != nil {
		return fmt.Errorf("removing modules %s: %w", strings.Join(modules, ","), err)
	}
	n, _ := res.RowsAffected()
	logging.Info(subsystem, "Marked %d module(s) uninstalled in %s: %s", n, database, strings.Join(modules, ","))
	return nil
}
