package toolserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvelope struct {
	Success bool
}

func (f fakeEnvelope) IsError() bool { return !f.Success }

func TestToolResponseMarshalsDataAndSetsIsError(t *testing.T) {
	result, err := toolResponse(fakeEnvelope{Success: true})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	result, err = toolResponse(fakeEnvelope{Success: false})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNewRegistersWithoutError(t *testing.T) {
	s := New(":0", nil, nil)
	require.NotNil(t, s)
	require.NotNil(t, s.mcp)
	require.NotNil(t, s.http)
}
