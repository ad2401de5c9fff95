package database

import (
	"context"
	"database/sql"
	"erdv/internal/errs"
	"erdv/internal/schema"
	"erdv/pkg/config"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Connector struct {
	db     *sql.DB
	driver string
}

type SchemaExtractor interface {
	ExtractCatalog(ctx context.Context, cfg config.SchemaConfig) (*Catalog, error)
}

func NewConnector(ctx context.Context, databaseURL string) (*Connector, error) {
	driver, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to open database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.KindIO, "failed to ping database", err)
	}

	return &Connector{
		db:     db,
		driver: driver,
	}, nil
}

func (c *Connector) Close() error {
	return c.db.Close()
}

func (c *Connector) Driver() string {
	return c.driver
}

func (c *Connector) ExtractCatalog(ctx context.Context, cfg config.SchemaConfig) (*Catalog, error) {
	extractor, err := newExtractor(c.driver, c.db)
	if err != nil {
		return nil, err
	}

	catalog, err := extractor.ExtractCatalog(ctx, cfg)
	if err != nil {
		if errs.KindOf(err) == errs.KindUnknown {
			return nil, errs.Wrap(errs.KindIO, "failed to extract schema", err)
		}
		return nil, err
	}
	return catalog, nil
}

// ImportDiagram reads the live schema and converts it into a diagram.
func (c *Connector) ImportDiagram(ctx context.Context, cfg config.SchemaConfig) (*schema.Diagram, error) {
	catalog, err := c.ExtractCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return catalog.Diagram(), nil
}

func newExtractor(driver string, db *sql.DB) (SchemaExtractor, error) {
	switch driver {
	case "postgres":
		return &PostgreSQLExtractor{db: db}, nil
	case "mysql":
		return &MySQLExtractor{db: db}, nil
	case "sqlite3":
		return &SQLiteExtractor{db: db}, nil
	default:
		return nil, errs.Newf(errs.KindInvalidInput, "unsupported database driver: %s", driver)
	}
}

// ParseDatabaseURL maps a database URL onto a database/sql driver name and
// the DSN that driver expects.
func ParseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", errs.Wrap(errs.KindInvalidInput, "failed to parse database URL", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return "postgres", databaseURL, nil
	case "mysql":
		return "mysql", mysqlDSN(u), nil
	case "sqlite", "sqlite3":
		return "sqlite3", strings.TrimPrefix(strings.TrimPrefix(databaseURL, u.Scheme+"://"), u.Scheme+":"), nil
	default:
		return "", "", errs.Newf(errs.KindInvalidInput, "unsupported database scheme: %s", u.Scheme)
	}
}

func mysqlDSN(u *url.URL) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = values[0]
	}
	return cfg.FormatDSN()
}
