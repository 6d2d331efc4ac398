package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckCommand_RequiresExactlyOneArg(t *testing.T) {
	cmd := newCheckCommand()
	require.NotNil(t, cmd.Args)
	assert.Error(t, cmd.Args(cmd, nil))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}))
	assert.NoError(t, cmd.Args(cmd, []string{"site-a"}))
}

func TestRunCheck_MissingAppReturnsError(t *testing.T) {
	cmd := newCheckCommand()
	err := runCheck(cmd, []string{"site-a"})
	assert.Error(t, err)
}
