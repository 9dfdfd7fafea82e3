package storage

import (
	"fmt"
	"strings"
)

// SQLConfig describes a SQL connection. DSN wins when set; otherwise it is
// built from the individual fields, or DefaultSQLitePath for sqlite.
type SQLConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DataSource returns the dialect and connection string for c.
func (c SQLConfig) DataSource() (Dialect, string, error) {
	d, err := ParseDialect(c.Driver)
	if err != nil {
		return "", "", err
	}
	if c.DSN != "" {
		return d, c.DSN, nil
	}
	switch d {
	case Postgres:
		return d, buildPostgresDSN(c), nil
	case MySQL:
		return d, buildMySQLDSN(c), nil
	}
	return d, DefaultSQLitePath, nil
}

// DefaultSQLitePath is used when the sqlite driver has no dsn.
const DefaultSQLitePath = "data/sitebuilder.db"

func buildMySQLDSN(c SQLConfig) string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4",
		c.User, c.Password, c.Host, port, c.Database,
	)
	if c.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

func buildPostgresDSN(c SQLConfig) string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Database, sslMode,
	)
}

// MongoConfig describes the MongoDB connection of the document backend.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// DefaultCollection holds one document per store and route.
const DefaultCollection = "jsons"

// Resolve returns the connection URI and database name. Password
// placeholders such as <password> in a supplied URI are filled in.
func (c MongoConfig) Resolve() (uri, dbName string) {
	if c.URI != "" {
		uri = c.URI
		if c.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", c.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", c.Password)
		}
	} else {
		port := c.Port
		if port == 0 {
			port = 27017
		}
		host := c.Host
		if host == "" {
			host = "localhost"
		}
		if c.User != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", c.User, c.Password, host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", host, port)
		}
	}

	dbName = c.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = "test"
	}
	return uri, dbName
}

// databaseFromURI extracts the path part of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if after, ok := strings.CutPrefix(rest, prefix); ok {
			rest = after
			break
		}
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return ""
	}
	path := rest[slash+1:]
	if q := strings.Index(path, "?"); q != -1 {
		path = path[:q]
	}
	return path
}

// Mask hides password inside s for logging.
func Mask(s, password string) string {
	if password == "" {
		return s
	}
	return strings.ReplaceAll(s, password, "***")
}
