package nj

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/bits-and-blooms/bitset"
)

// ChunkIndex is the per-chunk structural index: it owns the escape-carry
// index, the string-bitmap and the structural-position list for one chunk.
// Records are allocated once by the chunk pool (pool.go) and reused for
// the lifetime of a query — they are never individually freed mid-query.
type ChunkIndex struct {
	chunkSize int
	blockSize int

	// escapeCarry holds one flag per block boundary, length (number of
	// blocks)+1, where a chunk shorter than a block counts as one block.
	// escapeCarry[0] is the carry in from the previous chunk; escapeCarry[len-1]
	// is the carry out of this chunk.
	escapeCarry []bool

	// stringBits is the chunk's string-bitmap: bit i is 1 iff byte i is an
	// unescaped opening quote or lies inside a JSON string literal. The
	// closing quote's bit is 0, so opening and closing quotes are not
	// treated alike.
	stringBits *bitset.BitSet

	// structural accumulates unquoted structural-character positions
	// (global offsets into the document) during indexing. It is a roaring
	// bitmap rather than a plain slice because the indexer discovers hits a
	// 64-byte vector at a time and a bitmap union is the natural way to
	// merge those partial hit-sets before a single sorted-slice expansion
	// at the end.
	structural *roaring.Bitmap

	// positions is the expanded, ascending list of structural's contents,
	// materialized once per chunk at the end of indexChunk in indexer.go.
	positions []uint32

	// base is the offset of this chunk's first byte within the document.
	base int
	// length is the number of valid (non-padding) bytes in this chunk.
	length int
}

// newChunkIndex allocates a ChunkIndex sized for the given chunk and block
// size. Called once per ring slot at pool construction time.
func newChunkIndex(chunkSize, blockSize int) *ChunkIndex {
	return &ChunkIndex{
		chunkSize:   chunkSize,
		blockSize:   blockSize,
		escapeCarry: make([]bool, chunkSize/blockSize+1),
		stringBits:  bitset.New(uint(chunkSize)),
		structural:  roaring.New(),
		positions:   make([]uint32, 0, chunkSize/8),
	}
}

// reset clears a ChunkIndex for reuse by the next chunk that lands in this
// ring slot. Only legal to call while the slot is exclusively owned by the
// producer (i.e. between reserveWrite and the matching releaseWrite).
func (c *ChunkIndex) reset() {
	c.stringBits.ClearAll()
	c.structural.Clear()
	c.positions = c.positions[:0]
	for i := range c.escapeCarry {
		c.escapeCarry[i] = false
	}
	c.base = 0
	c.length = 0
}

// EndsInString reports whether the chunk's last valid byte lies inside a
// JSON string literal: the final bit of the string-bitmap equals the
// in-string state carried to the next chunk.
func (c *ChunkIndex) EndsInString() bool {
	if c.chunkSize == 0 {
		return false
	}
	return c.stringBits.Test(uint(c.chunkSize - 1))
}

// EndsWithEscape reports whether the carry out of the final block makes the
// first byte of the next chunk an escaped character.
func (c *ChunkIndex) EndsWithEscape() bool {
	return c.escapeCarry[len(c.escapeCarry)-1]
}

// Positions returns the ascending list of global structural-character
// offsets discovered in this chunk.
func (c *ChunkIndex) Positions() []uint32 {
	return c.positions
}
