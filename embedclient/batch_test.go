package embedclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareBatch(t *testing.T) {
	t.Run("empty-after-cleaning texts receive zero vectors, order preserved", func(t *testing.T) {
		out, toRun, runIndex := prepareBatch([]string{"hello", "---\n", "world"}, 4)

		require.Len(t, out, 3)
		assert.Equal(t, []float32{0, 0, 0, 0}, out[1])
		assert.Equal(t, []string{"hello", "world"}, toRun)
		assert.Equal(t, []int{0, 2}, runIndex)
	})

	t.Run("all empty yields no provider call candidates", func(t *testing.T) {
		_, toRun, _ := prepareBatch([]string{"", "   "}, 3)
		assert.Empty(t, toRun)
	})
}
