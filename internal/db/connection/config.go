package connection

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config describes the database a compiled condition is executed against
type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Path     string
	MaxConns int
}

// IsSQLite reports whether the config targets a SQLite file
func (c Config) IsSQLite() bool {
	return c.Driver == "sqlite" || c.Driver == "sqlite3"
}

// WithEnvironment fills unset PostgreSQL settings from PGHOST, PGPORT,
// PGDATABASE, PGUSER, PGPASSWORD and PGSSLMODE
func (c Config) WithEnvironment() Config {
	if c.Host == "" {
		c.Host = os.Getenv("PGHOST")
	}
	if c.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PGPORT")); err == nil && p > 0 && p <= 65535 {
			c.Port = p
		}
	}
	if c.Database == "" {
		c.Database = os.Getenv("PGDATABASE")
	}
	if c.User == "" {
		c.User = os.Getenv("PGUSER")
	}
	if c.Password == "" {
		c.Password = os.Getenv("PGPASSWORD")
	}
	if c.SSLMode == "" {
		c.SSLMode = os.Getenv("PGSSLMODE")
	}

	// Set defaults
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = os.Getenv("USER")
	}
	if c.Database == "" {
		c.Database = c.User
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	return c
}

// ConnectionString creates a PostgreSQL keyword/value connection string
func (c Config) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	parts := []string{
		"host=" + quoteValue(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"user=" + quoteValue(c.User),
		"database=" + quoteValue(c.Database),
		"sslmode=" + quoteValue(sslMode),
	}
	if c.Password != "" {
		parts = append(parts, "password="+quoteValue(c.Password))
	}
	return strings.Join(parts, " ")
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + valueEscaper.Replace(v) + "'"
}
