package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconkit/beacond/types"
)

func TestMakeChain(t *testing.T) {
	genesis := MakeBlock(0, types.ZeroRoot)
	blocks := MakeChain(MustBlockRoot(genesis), 1, 3)

	require.Len(t, blocks, 3)
	assert.Equal(t, []types.Slot{1, 2, 3}, Slots(blocks))
	assert.Equal(t, MustBlockRoot(genesis), blocks[0].ParentRoot())
	for i := 1; i < len(blocks); i++ {
		assert.Equal(t, MustBlockRoot(blocks[i-1]), blocks[i].ParentRoot())
	}
	assert.Equal(t, []types.Slot{3, 2, 1}, Slots(Reversed(blocks)))
}

func TestMakeForkDiverges(t *testing.T) {
	a := MakeFork(types.ZeroRoot, 1, 1, 1)
	b := MakeFork(types.ZeroRoot, 1, 1, 2)
	assert.NotEqual(t, MustBlockRoot(a[0]), MustBlockRoot(b[0]))
}
