package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSetArgs(t *testing.T) {
	attrs, err := parseSetArgs([]string{"name=web", "servicetype=HTTP", "comment=a=b"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":        "web",
		"servicetype": "HTTP",
		"comment":     "a=b",
	}, attrs)

	_, err = parseSetArgs([]string{"noequals"})
	assert.ErrorContains(t, err, "want key=value")

	_, err = parseSetArgs([]string{"=value"})
	assert.ErrorContains(t, err, "want key=value")
}

func TestParseStringArgs(t *testing.T) {
	args, err := parseStringArgs([]string{"policy=sess-pol", "priority=100"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"policy": "sess-pol", "priority": "100"}, args)

	_, err = parseStringArgs([]string{"bad"})
	assert.Error(t, err)
}
