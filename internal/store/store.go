package store

import (
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	lru "github.com/hashicorp/golang-lru"
	dbm "github.com/tendermint/tm-db"

	"github.com/beaconkit/beacond/types"
)

// DefaultCacheSize is the number of recently used blocks kept decoded in
// memory.
const DefaultCacheSize = 256

// ErrNotFound is returned when a requested block or pointer is not stored.
var ErrNotFound = errors.New("not found")

/*
BlockStore is a simple low level store for signed beacon blocks.

Blocks are stored SSZ encoded under their root. A secondary (slot, root)
index allows walking blocks by slot, including several blocks at the same
slot on different forks. Two pointers, the head and the finalized block, are
stored alongside.

Unlike a height-indexed store, slots may have gaps and forks, so Base and
Height are the lowest and highest slot with any block.
*/
type BlockStore struct {
	db    dbm.DB
	cache *lru.Cache
}

// NewBlockStore returns a new BlockStore over db.
func NewBlockStore(db dbm.DB) *BlockStore {
	cache, err := lru.New(DefaultCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &BlockStore{db: db, cache: cache}
}

// Base returns the lowest slot with a stored block, or 0 for an empty store.
func (bs *BlockStore) Base() (types.Slot, error) {
	iter, err := bs.db.Iterator(slotIndexKeyRange())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if iter.Valid() {
		slot, _, err := decodeSlotIndexKey(iter.Key())
		return slot, err
	}
	return 0, iter.Error()
}

// Height returns the highest slot with a stored block, or 0 for an empty
// store.
func (bs *BlockStore) Height() (types.Slot, error) {
	iter, err := bs.db.ReverseIterator(slotIndexKeyRange())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if iter.Valid() {
		slot, _, err := decodeSlotIndexKey(iter.Key())
		return slot, err
	}
	return 0, iter.Error()
}

// Size returns the number of stored blocks.
func (bs *BlockStore) Size() (int64, error) {
	iter, err := bs.db.Iterator(slotIndexKeyRange())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	var n int64
	for ; iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

// HasBlock reports whether a block with the given root is stored.
func (bs *BlockStore) HasBlock(root types.Root) (bool, error) {
	if bs.cache.Contains(root) {
		return true, nil
	}
	return bs.db.Has(blockKey(root))
}

// LoadBlock returns the block with the given root, or ErrNotFound.
func (bs *BlockStore) LoadBlock(root types.Root) (*types.SignedBeaconBlock, error) {
	if cached, ok := bs.cache.Get(root); ok {
		return cached.(*types.SignedBeaconBlock), nil
	}

	bz, err := bs.db.Get(blockKey(root))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, fmt.Errorf("block %s: %w", root, ErrNotFound)
	}

	block := new(types.SignedBeaconBlock)
	if err := block.UnmarshalSSZ(bz); err != nil {
		return nil, fmt.Errorf("decoding stored block %s: %w", root, err)
	}
	bs.cache.Add(root, block)
	return block, nil
}

// LoadBlocksAtSlot returns every stored block at slot.
func (bs *BlockStore) LoadBlocksAtSlot(slot types.Slot) ([]*types.SignedBeaconBlock, error) {
	iter, err := bs.db.Iterator(slotIndexKey(slot, types.ZeroRoot), slotIndexKey(slot+1, types.ZeroRoot))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var blocks []*types.SignedBeaconBlock
	for ; iter.Valid(); iter.Next() {
		_, root, err := decodeSlotIndexKey(iter.Key())
		if err != nil {
			return nil, err
		}
		block, err := bs.LoadBlock(root)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, iter.Error()
}

// IterateDescending calls fn for every stored block root from the highest
// slot down, and at equal slots from the greatest root down, until fn
// returns false.
func (bs *BlockStore) IterateDescending(fn func(slot types.Slot, root types.Root) (bool, error)) error {
	iter, err := bs.db.ReverseIterator(slotIndexKeyRange())
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		slot, root, err := decodeSlotIndexKey(iter.Key())
		if err != nil {
			return err
		}
		cont, err := fn(slot, root)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return iter.Error()
}

// SaveBlock stores block and returns its root. Saving a stored block again
// is a no-op.
func (bs *BlockStore) SaveBlock(block *types.SignedBeaconBlock) (types.Root, error) {
	root, err := block.BlockRoot()
	if err != nil {
		return types.ZeroRoot, err
	}
	bz, err := block.MarshalSSZ()
	if err != nil {
		return types.ZeroRoot, fmt.Errorf("encoding block %s: %w", root, err)
	}

	batch := bs.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(root), bz); err != nil {
		return types.ZeroRoot, err
	}
	if err := batch.Set(slotIndexKey(block.Slot(), root), []byte{}); err != nil {
		return types.ZeroRoot, err
	}
	if err := batch.WriteSync(); err != nil {
		return types.ZeroRoot, err
	}

	bs.cache.Add(root, block)
	return root, nil
}

// SaveHead records root as the canonical head.
func (bs *BlockStore) SaveHead(root types.Root) error {
	return bs.db.SetSync(headKey(), root[:])
}

// LoadHead returns the recorded head, or ErrNotFound.
func (bs *BlockStore) LoadHead() (types.Root, error) {
	return bs.loadPointer(headKey(), "head")
}

// SaveFinalized records root as the finalized block.
func (bs *BlockStore) SaveFinalized(root types.Root) error {
	return bs.db.SetSync(finalizedKey(), root[:])
}

// LoadFinalized returns the recorded finalized block root, or ErrNotFound.
func (bs *BlockStore) LoadFinalized() (types.Root, error) {
	return bs.loadPointer(finalizedKey(), "finalized")
}

func (bs *BlockStore) loadPointer(key []byte, name string) (types.Root, error) {
	bz, err := bs.db.Get(key)
	if err != nil {
		return types.ZeroRoot, err
	}
	if bz == nil {
		return types.ZeroRoot, fmt.Errorf("%s pointer: %w", name, ErrNotFound)
	}
	if len(bz) != types.RootLength {
		return types.ZeroRoot, fmt.Errorf("%s pointer has %d bytes", name, len(bz))
	}
	var root types.Root
	copy(root[:], bz)
	return root, nil
}

func (bs *BlockStore) Close() error {
	bs.cache.Purge()
	return bs.db.Close()
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
const (
	prefixBlock     = int64(0)
	prefixSlotIndex = int64(1)
	prefixHead      = int64(2)
	prefixFinalized = int64(3)
)

func blockKey(root types.Root) []byte {
	key, err := orderedcode.Append(nil, prefixBlock, string(root[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func slotIndexKey(slot types.Slot, root types.Root) []byte {
	key, err := orderedcode.Append(nil, prefixSlotIndex, uint64(slot), string(root[:]))
	if err != nil {
		panic(err)
	}
	return key
}

// slotIndexKeyRange spans every slot index key.
func slotIndexKeyRange() (start, end []byte) {
	start, err := orderedcode.Append(nil, prefixSlotIndex)
	if err != nil {
		panic(err)
	}
	end, err = orderedcode.Append(nil, prefixSlotIndex+1)
	if err != nil {
		panic(err)
	}
	return start, end
}

func decodeSlotIndexKey(key []byte) (types.Slot, types.Root, error) {
	var (
		prefix int64
		slot   uint64
		root   string
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &slot, &root)
	if err != nil {
		return 0, types.ZeroRoot, err
	}
	if len(remaining) != 0 {
		return 0, types.ZeroRoot, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixSlotIndex {
		return 0, types.ZeroRoot, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixSlotIndex, prefix)
	}
	if len(root) != types.RootLength {
		return 0, types.ZeroRoot, fmt.Errorf("slot index key has a %d byte root", len(root))
	}
	var r types.Root
	copy(r[:], root)
	return types.Slot(slot), r, nil
}

func headKey() []byte {
	key, err := orderedcode.Append(nil, prefixHead)
	if err != nil {
		panic(err)
	}
	return key
}

func finalizedKey() []byte {
	key, err := orderedcode.Append(nil, prefixFinalized)
	if err != nil {
		panic(err)
	}
	return key
}
