package nj

import "sync"

// chunkIndexPool is a fixed-capacity ring buffer of *ChunkIndex records
// shared between the indexer worker (producer) and the automaton
// (consumer). It owns every record in the pool for the lifetime of an
// Engine run; nothing is individually allocated or freed per chunk.
//
// reserveWrite/releaseWrite/claimRead/releaseRead hold the invariant that at
// most one slot is reserved for writing and at most one is claimed for
// reading at any time, so producer and consumer never touch the same
// record concurrently.
type chunkIndexPool struct {
	mu        sync.Mutex
	notFull   sync.Cond
	notEmpty  sync.Cond
	records   []*ChunkIndex
	readIdx   int
	writeIdx  int
	cancelled bool
}

// newChunkIndexPool allocates a pool of n ring slots, each sized for
// chunkSize/blockSize. n must be at least 2 so the producer and consumer
// never contend for the same slot.
func newChunkIndexPool(n, chunkSize, blockSize int) *chunkIndexPool {
	if n < 2 {
		n = 2
	}
	p := &chunkIndexPool{
		records: make([]*ChunkIndex, n),
	}
	p.notFull.L = &p.mu
	p.notEmpty.L = &p.mu
	for i := range p.records {
		p.records[i] = newChunkIndex(chunkSize, blockSize)
	}
	return p
}

// reserveWrite blocks until a slot is free and returns it for the producer
// to fill. Only one reservation may be outstanding at a time. Returns nil
// if the pool is cancelled while waiting.
func (p *chunkIndexPool) reserveWrite() *ChunkIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.writeIdx + 1
	if next == len(p.records) {
		next = 0
	}
	for next == p.readIdx && !p.cancelled {
		p.notFull.Wait()
	}
	if p.cancelled {
		return nil
	}
	return p.records[p.writeIdx]
}

// releaseWrite hands the filled slot to the consumer.
func (p *chunkIndexPool) releaseWrite(rec *ChunkIndex) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.writeIdx + 1
	if next == len(p.records) {
		next = 0
	}
	p.writeIdx = next
	p.notEmpty.Signal()
}

// claimRead blocks until a filled slot is available and returns it for the
// consumer to read. Only one claim may be outstanding at a time. Returns
// nil if the pool is cancelled while waiting.
func (p *chunkIndexPool) claimRead() *ChunkIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.readIdx == p.writeIdx && !p.cancelled {
		p.notEmpty.Wait()
	}
	if p.cancelled {
		return nil
	}
	return p.records[p.readIdx]
}

// releaseRead frees the claimed slot back to the producer.
func (p *chunkIndexPool) releaseRead(rec *ChunkIndex) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.readIdx + 1
	if next == len(p.records) {
		next = 0
	}
	p.readIdx = next
	p.notFull.Signal()
}

// reset rewinds both indices to the start of the ring. Only safe to call
// when no reservation or claim is outstanding, i.e. between Engine runs.
func (p *chunkIndexPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readIdx = 0
	p.writeIdx = 0
	p.cancelled = false
	for _, r := range p.records {
		r.reset()
	}
}

// cancel wakes any goroutine blocked in reserveWrite or claimRead so a
// cancelled run unwinds instead of leaving the indexer worker stuck on a
// ring that will never again be drained or filled.
func (p *chunkIndexPool) cancel() {
	p.mu.Lock()
	p.cancelled = true
	p.mu.Unlock()
	p.notFull.Broadcast()
	p.notEmpty.Broadcast()
}
