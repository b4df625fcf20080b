package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestMySQL_Config_FromLookup(t *testing.T) {
	t.Parallel()

	t.Run("defaults when unset", func(t *testing.T) {
		t.Parallel()

		cfg, err := ConfigFromLookup(lookupFrom(nil))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
		require.Equal(t, "localhost", cfg.Host)
		require.Equal(t, 3306, cfg.Port)
		require.Equal(t, "mcp-user", cfg.User)
		require.Equal(t, "utf8mb4", cfg.Charset)
		require.True(t, cfg.Autocommit)
		require.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("reads every variable", func(t *testing.T) {
		t.Parallel()

		cfg, err := ConfigFromLookup(lookupFrom(map[string]string{
			EnvHost:       "db.internal",
			EnvPort:       "3307",
			EnvUser:       "reader",
			EnvPassword:   "secret",
			EnvDatabase:   "app_db",
			EnvCharset:    "latin1",
			EnvAutocommit: "FALSE",
			EnvTimeout:    "2.5",
		}))
		require.NoError(t, err)
		require.Equal(t, Config{
			Host:       "db.internal",
			Port:       3307,
			User:       "reader",
			Password:   "secret",
			Database:   "app_db",
			Charset:    "latin1",
			Autocommit: false,
			Timeout:    2500 * time.Millisecond,
		}, cfg)
	})

	t.Run("autocommit only true for literal true", func(t *testing.T) {
		t.Parallel()

		cfg, err := ConfigFromLookup(lookupFrom(map[string]string{EnvAutocommit: "1"}))
		require.NoError(t, err)
		require.False(t, cfg.Autocommit)

		cfg, err = ConfigFromLookup(lookupFrom(map[string]string{EnvAutocommit: "True"}))
		require.NoError(t, err)
		require.True(t, cfg.Autocommit)
	})

	t.Run("accepts duration strings for timeout", func(t *testing.T) {
		t.Parallel()

		cfg, err := ConfigFromLookup(lookupFrom(map[string]string{EnvTimeout: "1m"}))
		require.NoError(t, err)
		require.Equal(t, time.Minute, cfg.Timeout)
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		t.Parallel()

		_, err := ConfigFromLookup(lookupFrom(map[string]string{EnvPort: "not-a-port"}))
		require.Error(t, err)
		require.Contains(t, err.Error(), EnvPort)

		_, err = ConfigFromLookup(lookupFrom(map[string]string{EnvPort: "70000"}))
		require.Error(t, err)
	})

	t.Run("rejects invalid timeout", func(t *testing.T) {
		t.Parallel()

		_, err := ConfigFromLookup(lookupFrom(map[string]string{EnvTimeout: "soon"}))
		require.Error(t, err)
		require.Contains(t, err.Error(), EnvTimeout)
	})
}

func TestMySQL_Config_DriverConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Database = "app_db"

	dc, err := cfg.DriverConfig()
	require.NoError(t, err)
	require.Equal(t, "tcp", dc.Net)
	require.Equal(t, "localhost:3306", dc.Addr)
	require.Equal(t, "mcp-user", dc.User)
	require.Equal(t, "mcp-password", dc.Passwd)
	require.Equal(t, "app_db", dc.DBName)
	require.Equal(t, 30*time.Second, dc.Timeout)
	require.True(t, dc.ParseTime)
	require.Equal(t, "true", dc.Params["autocommit"])
}

func TestMySQL_Config_StringRedactsPassword(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Password = "hunter2"

	s := cfg.String()
	require.NotContains(t, s, "hunter2")
	require.Contains(t, s, "mcp-user@localhost:3306")
	require.Contains(t, s, "(none)")
}
