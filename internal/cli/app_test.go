package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sitesentry.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	contents := "scheduler:\n  sqlite_db_path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(contents), 0o644))
	return cfgPath
}

func TestNewApp_WiresEveryComponent(t *testing.T) {
	cfgPath := writeTestConfig(t)

	a, err := newApp(cfgPath)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.cfg)
	require.NotNil(t, a.db)
	require.NotNil(t, a.sites)
	require.NotNil(t, a.jobs)
	require.NotNil(t, a.browser)
	require.NotNil(t, a.orchestrator)
	require.NotNil(t, a.engine)
	require.NotNil(t, a.notify)
}

func TestNewApp_MissingConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SITESENTRY_CONFIG_PATH", "")

	a, err := newApp(filepath.Join(dir, "does-not-exist.yaml"))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NotNil(t, a.cfg)
}

func TestAppFromContext_MissingReturnsError(t *testing.T) {
	_, err := appFromContext(context.Background())
	require.Error(t, err)
}

func TestContextWithApp_RoundTrips(t *testing.T) {
	a := &app{}
	ctx := contextWithApp(context.Background(), a)
	got, err := appFromContext(ctx)
	require.NoError(t, err)
	require.Same(t, a, got)
}
