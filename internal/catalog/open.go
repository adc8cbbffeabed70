package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/local/juyozufu/internal/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const defaultSQLitePath = "juyozufu.db"

//go:embed schema/*.sql
var schemaFS embed.FS

// DSN builds the connection string for cfg. An explicit URL always wins.
func DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	switch cfg.Driver {
	case DriverSQLite:
		return defaultSQLitePath, nil
	case DriverPostgres, "":
		if cfg.Password == "" {
			return "", fmt.Errorf("database password not configured")
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
			Path:   "/" + cfg.Name,
		}
		q := url.Values{}
		if cfg.SSLMode != "" {
			q.Set("sslmode", cfg.SSLMode)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to the catalog database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases coherent across calls.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates the nihonto_items table and its indexes if absent.
func Migrate(ctx context.Context, db DB, driver string) error {
	name := "schema/postgres.sql"
	if driver == DriverSQLite {
		name = "schema/sqlite.sql"
	}
	ddl, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}
