package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	envFile := filepath.Join(tmp, ".env.local")
	require.NoError(t, os.WriteFile(envFile, []byte("FREIGHTDESK_TEST_ENV_LOAD=ok\n"), 0o644))

	_ = os.Unsetenv("FREIGHTDESK_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("FREIGHTDESK_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{filepath.Join(tmp, ".env"), envFile})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("FREIGHTDESK_TEST_ENV_LOAD"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	tmp := t.TempDir()

	n, err := LoadEnv([]string{filepath.Join(tmp, ".env")})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestConfiguration_Load(t *testing.T) {
	t.Setenv("DB_NAME", "freightdesk_test")
	t.Setenv("PORT", "9100")
	t.Setenv("GO_APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")

	c := &Configuration{}
	require.NoError(t, c.load(nil))

	require.Equal(t, "freightdesk_test", c.Database.Name)
	require.Contains(t, c.Database.Opts, "dbname=freightdesk_test")
	require.Equal(t, ":9100", c.SocketAddress)
	require.Equal(t, "EUR", c.DefaultCurrency)
	require.Equal(t, "uploads", c.UploadsPath)
	require.NotNil(t, c.Logger())
}
