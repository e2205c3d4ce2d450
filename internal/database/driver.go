package database

import (
	"fmt"
	"net/url"
	"strings"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMongo    Driver = "mongodb"
)

// DetectDriver picks the backend from the connection string.
func DetectDriver(dsn string) (Driver, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case lower == "":
		return "", fmt.Errorf("database URL is empty")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return DriverPostgres, nil
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database URL scheme")
}

// sqlitePath strips the sqlite:// prefix so the rest can be handed to the driver.
func sqlitePath(dsn string) string {
	if len(dsn) >= len("sqlite://") && strings.EqualFold(dsn[:len("sqlite://")], "sqlite://") {
		return dsn[len("sqlite://"):]
	}
	return dsn
}

// WithDatabaseName applies a database name override to a PostgreSQL connection string.
func WithDatabaseName(dsn, name string) (string, error) {
	if name == "" {
		return dsn, nil
	}
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid database URL: %w", err)
		}
		u.Path = "/" + name
		return u.String(), nil
	}
	return dsn + " dbname=" + name, nil
}
