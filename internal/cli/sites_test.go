package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSitesCommand_RegistersSubcommands(t *testing.T) {
	sites := newSitesCommand()

	names := map[string]bool{}
	for _, cmd := range sites.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["list"])
	assert.True(t, names["add"])
	assert.True(t, names["remove"])
	assert.True(t, names["pause"])
	assert.True(t, names["resume"])
}

func TestNewSitesAddCommand_RequiresTwoArgs(t *testing.T) {
	cmd := newSitesAddCommand()
	require.NotNil(t, cmd.Args)
	assert.Error(t, cmd.Args(cmd, []string{"only-one"}))
	assert.NoError(t, cmd.Args(cmd, []string{"site-a", "https://example.com"}))
}

func TestNewSitesAddCommand_DefaultFlags(t *testing.T) {
	cmd := newSitesAddCommand()

	kind := cmd.Flags().Lookup("schedule-kind")
	require.NotNil(t, kind)
	assert.Equal(t, "interval", kind.DefValue)

	sched := cmd.Flags().Lookup("schedule")
	require.NotNil(t, sched)
	assert.Equal(t, "5m", sched.DefValue)

	inactive := cmd.Flags().Lookup("inactive")
	require.NotNil(t, inactive)
	assert.Equal(t, "false", inactive.DefValue)
}

func TestNewSitesRemoveCommand_RequiresOneArg(t *testing.T) {
	cmd := newSitesRemoveCommand()
	require.NotNil(t, cmd.Args)
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"site-a"}))
}
