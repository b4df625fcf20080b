package mysql

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

const (
	defaultHost       = "localhost"
	defaultPort       = 3306
	defaultUser       = "mcp-user"
	defaultPassword   = "mcp-password"
	defaultCharset    = "utf8mb4"
	defaultAutocommit = true
	defaultTimeout    = 30 * time.Second

	EnvHost       = "MYSQL_HOST"
	EnvPort       = "MYSQL_PORT"
	EnvUser       = "MYSQL_USER"
	EnvPassword   = "MYSQL_PASSWORD"
	EnvDatabase   = "MYSQL_DATABASE"
	EnvCharset    = "MYSQL_CHARSET"
	EnvAutocommit = "MYSQL_AUTOCOMMIT"
	EnvTimeout    = "MYSQL_TIMEOUT"
)

// Config describes how to reach the MySQL server. It is built once at
// startup and shared read-only.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	Charset    string
	Autocommit bool
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:       defaultHost,
		Port:       defaultPort,
		User:       defaultUser,
		Password:   defaultPassword,
		Charset:    defaultCharset,
		Autocommit: defaultAutocommit,
		Timeout:    defaultTimeout,
	}
}

// ConfigFromEnv builds a Config from the MYSQL_* environment variables,
// falling back to defaults for unset variables.
func ConfigFromEnv() (Config, error) {
	return ConfigFromLookup(os.LookupEnv)
}

func ConfigFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Port = port
	}
	if v, ok := lookup(EnvUser); ok {
		cfg.User = v
	}
	if v, ok := lookup(EnvPassword); ok {
		cfg.Password = v
	}
	if v, ok := lookup(EnvDatabase); ok {
		cfg.Database = v
	}
	if v, ok := lookup(EnvCharset); ok {
		cfg.Charset = v
	}
	if v, ok := lookup(EnvAutocommit); ok {
		cfg.Autocommit = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvTimeout); ok {
		timeout, err := parseTimeout(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseTimeout accepts either a number of seconds ("30", "2.5") or a Go
// duration string ("30s").
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DriverConfig converts the Config into a go-sql-driver configuration.
func (c Config) DriverConfig() (*gomysql.Config, error) {
	dc := gomysql.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = c.Addr()
	dc.DBName = c.Database
	dc.Timeout = c.Timeout
	dc.ParseTime = true
	dc.Params = map[string]string{
		"autocommit": strconv.FormatBool(c.Autocommit),
	}
	if c.Charset != "" {
		if err := dc.Apply(gomysql.Charset(c.Charset, "")); err != nil {
			return nil, fmt.Errorf("failed to apply charset %q: %w", c.Charset, err)
		}
	}
	return dc, nil
}

// String renders the config without the password.
func (c Config) String() string {
	db := c.Database
	if db == "" {
		db = "(none)"
	}
	return fmt.Sprintf("%s@%s/%s charset=%s autocommit=%t timeout=%s", c.User, c.Addr(), db, c.Charset, c.Autocommit, c.Timeout)
}
