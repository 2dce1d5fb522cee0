package nj

// carryState threads the two pieces of information that cross a chunk
// boundary: whether the last block ended mid-escape-run, and whether the
// chunk itself ended inside a string literal.
type carryState struct {
	escape   bool
	inString bool
}

// indexChunk computes the string-bitmap and structural-position list for
// one chunk, writing the result into idx (already allocated by the pool).
// base is the chunk's offset within the document; carry is the state left
// by the previous chunk (zero value for the first chunk). It returns the
// carry state to hand to the next chunk.
//
// The bit tricks operate over 64-byte vectors (bitindex.go), chained first
// across BlockSize-sized blocks to build the escape-carry index, then
// across the whole chunk in a second pass that builds the string-bitmap
// and extracts structural-character positions outside of strings.
func indexChunk(idx *ChunkIndex, chunk []byte, base int, carry carryState, extract bitExtractor) carryState {
	idx.base = base
	idx.length = len(chunk)

	nBlocks := len(chunk) / BlockSize
	if len(chunk)%BlockSize != 0 {
		nBlocks++
	}
	if cap(idx.escapeCarry) < nBlocks+1 {
		idx.escapeCarry = make([]bool, nBlocks+1)
	} else {
		idx.escapeCarry = idx.escapeCarry[:nBlocks+1]
	}

	idx.escapeCarry[0] = carry.escape
	escapeIn := carry.escape

	// Pass 1: compute the escape-carry index, one flag per block boundary,
	// by walking each block's backslash runs a 64-byte vector at a time.
	for b := 0; b < nBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > len(chunk) {
			end = len(chunk)
		}
		prevEscaped := uint64(0)
		if escapeIn {
			prevEscaped = 1
		}
		for v := start; v < end; v += vectorWidth {
			ve := v + vectorWidth
			if ve > end {
				ve = end
			}
			backslashes := matchByte(chunk[v:ve], '\\')
			escapedMask(backslashes, &prevEscaped)
		}
		escapeIn = prevEscaped&1 != 0
		idx.escapeCarry[b+1] = escapeIn
	}

	// Pass 2: build the string-bitmap and extract structural positions,
	// chaining both the escape parity (per block, from pass 1) and the
	// in-string state (strictly sequentially across the whole chunk). Each
	// vector's hits are unioned into idx.structural; idx.positions is
	// materialized from it once, after the loop, as a single sorted slice.
	inString := carry.inString
	var vecPositions []uint32
	for b := 0; b < nBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > len(chunk) {
			end = len(chunk)
		}
		prevEscaped := uint64(0)
		if idx.escapeCarry[b] {
			prevEscaped = 1
		}
		for v := start; v < end; v += vectorWidth {
			ve := v + vectorWidth
			if ve > end {
				ve = end
			}
			block := chunk[v:ve]
			backslashes := matchByte(block, '\\')
			escaped := escapedMask(backslashes, &prevEscaped)

			quotes := matchByte(block, '"') &^ escaped
			inStringVector := prefixXOR(quotes)
			if inString {
				inStringVector = ^inStringVector
			}
			n := len(block)
			for i := 0; i < n; i++ {
				bit := inStringVector&(1<<uint(i)) != 0
				if bit {
					idx.stringBits.Set(uint(v + i))
				}
			}
			if n > 0 {
				inString = inStringVector&(1<<uint(n-1)) != 0
			}

			structural := matchStructural(block) &^ inStringVector
			vecPositions = extract(structural, base+v, vecPositions[:0])
			if len(vecPositions) > 0 {
				idx.structural.AddMany(vecPositions)
			}
		}
	}

	idx.positions = idx.positions[:0]
	it := idx.structural.Iterator()
	for it.HasNext() {
		idx.positions = append(idx.positions, it.Next())
	}

	return carryState{escape: escapeIn, inString: inString}
}
