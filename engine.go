package nj

import (
	"context"

	"github.com/nj-engine/nj/jsonpath"
	"github.com/rs/zerolog"
)

// Engine ties the structural pipeline (components B-D) to the automaton
// (component F) and its ResultSet (component G) for a single query run
// against a single document. An Engine is re-entrant: Run may be called
// more than once (e.g. against different documents) as long as calls do
// not overlap.
type Engine struct {
	chunkSize  int
	queueDepth int
	log        zerolog.Logger
	tracer     *Tracer
	ctx        context.Context
}

// NewEngine validates its options and returns a ready-to-use Engine.
// Defaults: DefaultChunkSize, queue depth 4, a no-op logger, no tracer, and
// context.Background().
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		chunkSize:  DefaultChunkSize,
		queueDepth: 4,
		log:        zerolog.Nop(),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := validateChunkSize(e.chunkSize, BlockSize); err != nil {
		return nil, err
	}
	if e.queueDepth < 2 {
		return nil, &ConfigError{Msg: "queue depth must be at least 2"}
	}
	return e, nil
}

// Run compiles query, scans doc, and returns the set of matching byte
// spans. The document is held in memory for the duration of the call; the
// indexer runs concurrently with the automaton via the internal pipeline.
func (e *Engine) Run(doc []byte, query string) (*ResultSet, error) {
	q, err := jsonpath.Parse(query)
	if err != nil {
		return nil, err
	}
	prog, err := Compile(q)
	if err != nil {
		return nil, err
	}
	return e.RunProgram(doc, prog)
}

// RunProgram runs a pre-compiled Program, skipping query parsing. Useful
// for callers that compile once and run many documents through the same
// query.
func (e *Engine) RunProgram(doc []byte, prog *Program) (*ResultSet, error) {
	if len(prog.Instructions) == 0 || prog.Instructions[len(prog.Instructions)-1].Op != OpRecordResult {
		return nil, &QueryError{Msg: "program must end in RecordResult"}
	}

	results := NewResultSet()
	if len(doc) == 0 {
		return results, nil
	}

	p := newPipeline(doc, e.chunkSize, e.queueDepth, e.log, e.tracer)
	p.start(e.ctx)

	automatonTrace := e.tracer.StartTrace("automaton")
	automaton := NewAutomaton(doc, prog, p, results)
	runErr := automaton.Run()
	e.tracer.FinishTrace(automatonTrace)

	stopErr := p.stop()
	if err := e.ctx.Err(); err != nil {
		return nil, err
	}
	if stopErr != nil {
		return nil, stopErr
	}
	if runErr != nil {
		return nil, runErr
	}
	return results, nil
}
