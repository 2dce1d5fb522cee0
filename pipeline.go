package nj

import (
	"context"
	"fmt"

	"github.com/oklog/run"
	"github.com/rs/zerolog"
)

// pipeline runs the structural indexer (component B) as a background
// producer over a chunkIndexPool (component C) and exposes the combined
// structural-character stream to the automaton (component F) through a
// single structuralSource.
//
// The indexer and the automaton run concurrently, but the indexer itself
// handles one chunk at a time: each chunk is fully indexed and then
// published before work on the next one starts. There is no ping-pong
// overlap between indexing one chunk and finalizing the previous one.
type pipeline struct {
	doc       []byte
	chunkSize int
	pool      *chunkIndexPool
	extract   bitExtractor
	log       zerolog.Logger
	tracer    *Tracer

	group  run.Group
	cancel context.CancelFunc
	errc   chan error

	current       *ChunkIndex
	posInChunk    int
	chunksClaimed int
}

func newPipeline(doc []byte, chunkSize, queueDepth int, log zerolog.Logger, tracer *Tracer) *pipeline {
	return &pipeline{
		doc:       doc,
		chunkSize: chunkSize,
		pool:      newChunkIndexPool(queueDepth, chunkSize, BlockSize),
		extract:   selectBitExtractor(),
		log:       log,
		tracer:    tracer,
	}
}

// start launches the background indexer worker under an oklog/run group so
// a cancellation from ctx or a startup error unwinds cleanly.
func (p *pipeline) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.errc = make(chan error, 1)

	p.group.Add(func() error {
		err := p.runIndexer(ctx)
		if err != nil || ctx.Err() != nil {
			// The worker stopped before producing every chunk: wake a
			// consumer blocked in claimRead on chunks that will never come.
			p.pool.cancel()
		}
		return err
	}, func(error) {
		cancel()
	})

	go func() {
		p.errc <- p.group.Run()
	}()
}

// runIndexer is the producer loop: for every chunk it reserves a pool
// slot, runs indexChunk into it (the CPU-bound work a real NPU kernel
// would instead offload) and then releases the slot so the automaton can
// claim it. The steps run strictly in sequence; indexing of chunk i+1
// starts only after chunk i has been released.
func (p *pipeline) runIndexer(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("indexer worker recovered from panic")
			err = &IndexerError{Kind: InvalidJSON, Msg: fmt.Sprint(r)}
		}
	}()

	n := numChunks(len(p.doc), p.chunkSize)
	carry := carryState{}
	buf := make([]byte, p.chunkSize)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return nil
		}
		traceID := p.tracer.StartTrace("indexer")

		rec := p.pool.reserveWrite()
		if rec == nil {
			return nil
		}
		rec.reset()

		start := i * p.chunkSize
		end := start + p.chunkSize
		if end > len(p.doc) {
			end = len(p.doc)
		}
		chunk := p.doc[start:end]
		if len(chunk) < p.chunkSize {
			padChunk(buf, chunk)
			chunk = buf
		}

		carry = indexChunk(rec, chunk, start, carry, p.extract)
		p.pool.releaseWrite(rec)

		p.tracer.FinishTrace(traceID)
		p.log.Debug().Int("chunk", i).Int("structural", len(rec.positions)).Msg("indexed chunk")
	}
	return nil
}

// next implements structuralSource: it hands out structural-character
// positions in ascending order, transparently crossing chunk boundaries by
// claiming the next pool slot (waiting on the indexer worker if needed)
// once the current one is exhausted.
func (p *pipeline) next() (byte, int, bool) {
	for {
		if p.current != nil && p.posInChunk < len(p.current.positions) {
			pos := int(p.current.positions[p.posInChunk])
			p.posInChunk++
			return p.doc[pos], pos, true
		}
		if p.current != nil {
			p.pool.releaseRead(p.current)
			p.current = nil
		}
		if p.done() {
			return 0, 0, false
		}
		p.current = p.pool.claimRead()
		if p.current == nil {
			return 0, 0, false
		}
		p.posInChunk = 0
		p.chunksClaimed++
	}
}

// chunksClaimed tracks how many chunks next has pulled from the pool, so
// done can tell "no more chunks will ever arrive" apart from "the next one
// just isn't ready yet".
func (p *pipeline) done() bool {
	return p.chunksClaimed >= numChunks(len(p.doc), p.chunkSize)
}

// stop cancels the background worker, wakes it if it is blocked on the
// pool's condition variables, and waits for it to exit.
func (p *pipeline) stop() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	p.pool.cancel()
	return <-p.errc
}
