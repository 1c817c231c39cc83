package db

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

// Driver names as reported by the GORM dialectors. The statement layer
// dispatches on these.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
)

// DialectConfig assembles a connection for one database dialect.
type DialectConfig interface {
	// Name returns the driver name the dialector will report.
	Name() string
	// DSN returns the data source name for the dialect.
	DSN() (string, error)
	// Dialector builds the GORM dialector for gorm.Open.
	Dialector() (gorm.Dialector, error)
	// Validate checks the configuration before any connection is attempted.
	Validate() error
}

// SQLiteConfig configures a SQLite database.
//
// Database is either ":memory:" for an in-memory database or a file path.
// A ".db" extension is appended to file paths that carry no extension.
type SQLiteConfig struct {
	Database string `json:"database" yaml:"database"`
}

func (c SQLiteConfig) Name() string { return DriverSQLite }

func (c SQLiteConfig) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("sqlite database is required")
	}
	return nil
}

func (c SQLiteConfig) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if strings.HasPrefix(c.Database, ":memory:") || strings.HasPrefix(c.Database, "file:") {
		return c.Database, nil
	}
	path := c.Database
	if filepath.Ext(path) == "" {
		path += ".db"
	}
	return path, nil
}

func (c SQLiteConfig) Dialector() (gorm.Dialector, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(dsn), nil
}

// PostgresConfig configures a PostgreSQL database.
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"` // Default: disable
	TimeZone string `json:"timezone" yaml:"timezone"` // Default: UTC
}

func (c PostgresConfig) Name() string { return DriverPostgres }

func (c PostgresConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("postgres port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("postgres database is required")
	}
	if c.User == "" {
		return fmt.Errorf("postgres user is required")
	}
	return nil
}

func (c PostgresConfig) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	tz := c.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode, tz,
	), nil
}

func (c PostgresConfig) Dialector() (gorm.Dialector, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return postgres.Open(dsn), nil
}

// SQLServerConfig configures a Microsoft SQL Server database.
type SQLServerConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Schema   string `json:"schema" yaml:"schema"`

	// TrustServerCertificate and Encrypt mirror the ODBC connection options.
	TrustServerCertificate string `json:"trust_server_certificate" yaml:"trust_server_certificate"` // Default: yes
	Encrypt                string `json:"encrypt" yaml:"encrypt"`                                   // Default: no
}

func (c SQLServerConfig) Name() string { return DriverSQLServer }

func (c SQLServerConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("sqlserver host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("sqlserver port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("sqlserver database is required")
	}
	if c.User == "" {
		return fmt.Errorf("sqlserver user is required")
	}
	return nil
}

func (c SQLServerConfig) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	trust := c.TrustServerCertificate
	if trust == "" {
		trust = "yes"
	}
	encrypt := c.Encrypt
	if encrypt == "" {
		encrypt = "no"
	}
	query := url.Values{}
	query.Set("database", c.Database)
	query.Set("TrustServerCertificate", trust)
	query.Set("encrypt", encrypt)
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}

func (c SQLServerConfig) Dialector() (gorm.Dialector, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return sqlserver.Open(dsn), nil
}

// SQLServerConfigFromEnv loads a SQL Server configuration from a dotenv file
// honoring the IP/Port/DB/User/Password/Schema keys.
func SQLServerConfigFromEnv(path string) (SQLServerConfig, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return SQLServerConfig{}, fmt.Errorf("failed to read env file %q: %w", path, err)
	}
	port, err := strconv.Atoi(values["Port"])
	if err != nil {
		return SQLServerConfig{}, fmt.Errorf("invalid Port in env file %q: %w", path, err)
	}
	cfg := SQLServerConfig{
		Host:     values["IP"],
		Port:     port,
		Database: values["DB"],
		User:     values["User"],
		Password: values["Password"],
		Schema:   values["Schema"],
	}
	return cfg, cfg.Validate()
}

// MySQLConfig configures a MySQL database. The DSN is assembled with the
// official driver's config builder rather than string concatenation.
type MySQLConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`

	Charset   string `json:"charset" yaml:"charset"`     // Optional, derived from collation when empty
	Collation string `json:"collation" yaml:"collation"` // Default: utf8mb4_unicode_ci
	TimeZone  string `json:"timezone" yaml:"timezone"`   // Default: UTC

	TLS TLSConfig `json:"tls" yaml:"tls"`
}

// TLSConfig holds TLS options for MySQL connections.
type TLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	CAFile     string `json:"ca_file" yaml:"ca_file"`
	SkipVerify bool   `json:"skip_verify" yaml:"skip_verify"`
	ServerName string `json:"server_name" yaml:"server_name"`
}

func (c MySQLConfig) Name() string { return DriverMySQL }

func (c MySQLConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("mysql host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("mysql port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("mysql database is required")
	}
	if c.User == "" {
		return fmt.Errorf("mysql user is required")
	}
	if c.TLS.Enabled && !c.TLS.SkipVerify {
		if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
			return fmt.Errorf("mysql tls: both cert_file and key_file must be provided together")
		}
	}
	return nil
}

func (c MySQLConfig) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	loc := time.UTC
	if c.TimeZone != "" {
		parsed, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return "", fmt.Errorf("invalid mysql timezone %q: %w", c.TimeZone, err)
		}
		loc = parsed
	}
	collation := c.Collation
	if collation == "" {
		collation = "utf8mb4_unicode_ci"
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.Collation = collation
	cfg.Loc = loc
	cfg.ParseTime = true
	if c.Charset != "" {
		cfg.Params = map[string]string{"charset": c.Charset}
	}
	if c.TLS.Enabled {
		name, err := c.registerTLSConfig()
		if err != nil {
			return "", err
		}
		cfg.TLSConfig = name
	}
	return cfg.FormatDSN(), nil
}

// registerTLSConfig builds a tls.Config from the file-based options and
// registers it with the MySQL driver under a name derived from the config,
// so repeated registration of the same config is idempotent.
func (c MySQLConfig) registerTLSConfig() (string, error) {
	if c.TLS.SkipVerify {
		return "skip-verify", nil
	}
	tlsConfig := &tls.Config{ServerName: c.TLS.ServerName}
	if c.TLS.CAFile != "" {
		caCert, err := os.ReadFile(c.TLS.CAFile)
		if err != nil {
			return "", fmt.Errorf("failed to read mysql CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return "", fmt.Errorf("invalid mysql CA certificate in %q", c.TLS.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	if c.TLS.CertFile != "" && c.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLS.CertFile, c.TLS.KeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to load mysql client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	sum := sha256.Sum256([]byte(c.TLS.CAFile + "|" + c.TLS.CertFile + "|" + c.TLS.KeyFile + "|" + c.TLS.ServerName))
	name := "ormkit-" + hex.EncodeToString(sum[:6])
	if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
		return "", fmt.Errorf("failed to register mysql tls config: %w", err)
	}
	return name, nil
}

func (c MySQLConfig) Dialector() (gorm.Dialector, error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return gormmysql.Open(dsn), nil
}
