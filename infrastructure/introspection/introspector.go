// Package introspection reads table and column metadata from registered
// relational data sources through INFORMATION_SCHEMA.
package introspection

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

// OpenFunc opens a database handle; sql.Open in production
type OpenFunc func(driverName, dsn string) (*sql.DB, error)

type dialect struct {
	driverName string
	query      string
	dsn        func(ds *entities.DataSource) string
}

const columnsSelect = `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE
FROM INFORMATION_SCHEMA.COLUMNS`

var dialects = map[string]dialect{
	entities.DriverSQLServer: {
		driverName: "sqlserver",
		query:      columnsSelect + ` ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		dsn:        sqlServerDSN,
	},
	entities.DriverPostgres: {
		driverName: "postgres",
		query: columnsSelect + ` WHERE TABLE_SCHEMA NOT IN ('pg_catalog', 'information_schema')
ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		dsn: postgresDSN,
	},
	entities.DriverMySQL: {
		driverName: "mysql",
		query:      columnsSelect + ` WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		dsn:        mysqlDSN,
	},
}

// Introspector opens a short-lived connection per request
type Introspector struct {
	open   OpenFunc
	logger *zap.Logger
}

var _ ports.SchemaIntrospector = (*Introspector)(nil)

// NewIntrospector creates an introspector backed by database/sql drivers
func NewIntrospector(logger *zap.Logger) *Introspector {
	return &Introspector{open: sql.Open, logger: logger}
}

// WithOpener replaces how connections are opened
func (i *Introspector) WithOpener(open OpenFunc) *Introspector {
	i.open = open
	return i
}

// Introspect returns every table's columns in ordinal order
func (i *Introspector) Introspect(ctx context.Context, ds *entities.DataSource) (entities.Schema, error) {
	d, ok := dialects[ds.DriverOrDefault()]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", ds.Driver)
	}

	db, err := i.open(d.driverName, d.dsn(ds))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx, d.query)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	schema := make(entities.Schema)
	count := 0
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema[table] = append(schema[table], entities.Column{
			Name:     column,
			Type:     dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	i.logger.Debug("Schema introspected",
		zap.String("datasourceId", ds.ID),
		zap.String("driver", d.driverName),
		zap.Int("tables", len(schema)),
		zap.Int("columns", count),
	)
	return schema, nil
}

func sqlServerDSN(ds *entities.DataSource) string {
	q := url.Values{}
	q.Set("database", ds.Database)
	q.Set("encrypt", "true")
	q.Set("TrustServerCertificate", "true")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(ds.Username, ds.Password),
		Host:     ds.Server,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func postgresDSN(ds *entities.DataSource) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(ds.Username, ds.Password),
		Host:   ds.Server,
		Path:   "/" + ds.Database,
	}
	return u.String()
}

func mysqlDSN(ds *entities.DataSource) string {
	cfg := mysql.NewConfig()
	cfg.User = ds.Username
	cfg.Passwd = ds.Password
	cfg.Net = "tcp"
	cfg.Addr = withDefaultPort(ds.Server, "3306")
	cfg.DBName = ds.Database
	return cfg.FormatDSN()
}

func withDefaultPort(host, port string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, port)
}
