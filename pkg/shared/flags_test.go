package shared

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFlags(t *testing.T) {
	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	flags.String("source-dir", "", "")
	flags.Bool("dedup", false, "")

	require.NoError(t, flags.Parse([]string{}))
	assert.False(t, HasFlags(flags))

	require.NoError(t, flags.Parse([]string{"--dedup"}))
	assert.True(t, HasFlags(flags))
}
