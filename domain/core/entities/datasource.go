package entities

import "time"

// Supported relational drivers for schema introspection
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
)

// DataSource is a relational database registered by a user.
// The password is stored so the schema can be introspected later but is
// never serialized back to clients.
type DataSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Server   string `json:"server"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"-"`
	Driver   string `json:"driver"`

	OwnerID   string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// DriverOrDefault returns the configured driver, defaulting to SQL Server
func (d DataSource) DriverOrDefault() string {
	if d.Driver == "" {
		return DriverSQLServer
	}
	return d.Driver
}

// Column describes one column of a relational table
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema maps table name to its columns in ordinal order
type Schema map[string][]Column
