package nj

import "bytes"

// Container is the kind of JSON value a frame on the automaton's stack
// represents.
type Container int

const (
	ContainerObject Container = iota
	ContainerArray
)

// frame is one entry of the automaton's stack: the container currently
// being scanned, which selector instruction (FindKey/FindIndex/FindRange/
// Wildcard) it is trying to satisfy, and the bookkeeping needed to decide,
// token by token, whether the element just seen is the one the query
// wants.
//
// Every frame on the stack exists because some ancestor's selector matched
// and descended into it — a container the query isn't interested in is
// skipped with skipToClose and never becomes a frame at all.
type frame struct {
	kind Container
	ip   int // index into Program.Instructions of this frame's selector

	// loop is true for Wildcard and FindRange frames: more than one
	// sibling can match, so the frame keeps scanning after a match
	// instead of fast-forwarding to its own close.
	loop bool

	// satisfied is set once a one-shot (!loop) frame's single match has
	// been fully resolved. finishSatisfiedAncestors uses it to skip the
	// remainder of the frame's content instead of inspecting every
	// further sibling.
	satisfied bool

	matchedKey bool // object frames: true while scanning the value of a just-matched key
	arrayPos   int  // array frames: index of the element currently being scanned
}

func (f *frame) enter() {
	f.matchedKey = false
	f.arrayPos = 0
}

// structuralSource yields the document's structural-character stream in
// ascending byte-offset order (component D / the chunk pipeline in
// production, a plain slice in tests).
type structuralSource interface {
	next() (tok byte, pos int, ok bool)
}

// Automaton is the pushdown automaton of component F: it walks a
// structural-character stream, executing a compiled Program against it,
// and records the byte span of every match in a ResultSet.
type Automaton struct {
	doc     []byte
	prog    *Program
	src     structuralSource
	results *ResultSet

	stack   []frame
	prevPos int
}

// NewAutomaton builds an automaton over doc driven by src, recording
// matches of prog into results.
func NewAutomaton(doc []byte, prog *Program, src structuralSource, results *ResultSet) *Automaton {
	return &Automaton{doc: doc, prog: prog, src: src, results: results}
}

func (a *Automaton) next() (byte, int, bool) {
	return a.src.next()
}

// markPos records that a token at tokenPos was just consumed, so the next
// span of raw content (a key, a scalar value) begins one byte later.
func (a *Automaton) markPos(tokenPos int) {
	a.prevPos = tokenPos + 1
}

// Run drives the automaton to completion, returning after the document's
// root value closes or the stream runs out. Errors reported are limited to
// malformed-structure conditions the indexer could not already catch
// (mismatched bracket nesting, truncated input); a query that simply does
// not match the document is not an error — ResultSet stays empty.
func (a *Automaton) Run() error {
	if len(a.prog.Instructions) == 0 {
		return &QueryError{Msg: "program has no instructions"}
	}
	if err := a.openRoot(); err != nil {
		return err
	}
	for len(a.stack) > 0 {
		top := &a.stack[len(a.stack)-1]
		var err error
		switch top.kind {
		case ContainerObject:
			err = a.scanObjectFrame()
		case ContainerArray:
			err = a.scanArrayFrame()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Automaton) openRoot() error {
	instr := a.prog.Instructions[0]
	if instr.Op == OpRecordResult {
		s, e := trimSpan(a.doc, 0, len(a.doc))
		if e > s {
			a.results.Record(s, e)
		}
		return nil
	}
	tok, pos, ok := a.next()
	if !ok || (tok != '{' && tok != '[') {
		// The document's root isn't a container (or there is no
		// document at all): a query that needs to descend simply has
		// nothing to match.
		return nil
	}
	kind := ContainerObject
	if tok == '[' {
		kind = ContainerArray
	}
	if !containerWanted(instr.Op, kind) {
		if _, err := a.skipToClose(); err != nil {
			return err
		}
		return nil
	}
	selectorIP := 0
	if instr.Op == OpOpenObject || instr.Op == OpOpenArray {
		selectorIP = 1
	}
	selector := a.prog.Instructions[selectorIP]
	nf := frame{kind: kind, ip: selectorIP, loop: selector.Op == OpWildcard || selector.Op == OpFindRange}
	nf.enter()
	a.stack = append(a.stack, nf)
	a.markPos(pos)
	return nil
}

func (a *Automaton) scanObjectFrame() error {
	top := &a.stack[len(a.stack)-1]
	elementStart := a.prevPos
	tok, pos, ok := a.next()
	if !ok {
		return &EngineError{Kind: UnexpectedEndOfInput, Pos: a.prevPos}
	}
	switch tok {
	case '}':
		if top.matchedKey && pos > elementStart {
			if err := a.recordScalarSpan(elementStart, pos, true); err != nil {
				return err
			}
		}
		return a.closeFrame(pos)
	case ':':
		key := unquoteKey(a.doc[elementStart:pos])
		instr := a.prog.Instructions[top.ip]
		switch instr.Op {
		case OpFindKey:
			top.matchedKey = !top.satisfied && key == instr.Key
		case OpWildcard:
			top.matchedKey = true
		default:
			return &QueryError{Msg: "object frame holding a non-object selector"}
		}
		a.markPos(pos)
		return nil
	case ',':
		if top.matchedKey && pos > elementStart {
			if err := a.recordScalarSpan(elementStart, pos, false); err != nil {
				return err
			}
		}
		top.matchedKey = false
		a.markPos(pos)
		return nil
	case '{', '[':
		if top.matchedKey {
			return a.enterContainerValue(tok, pos, top.ip+1)
		}
		if _, err := a.skipToClose(); err != nil {
			return err
		}
		a.markPos(pos)
		return nil
	default:
		return &EngineError{Kind: InvalidJSON, Pos: pos}
	}
}

func (a *Automaton) scanArrayFrame() error {
	top := &a.stack[len(a.stack)-1]
	elementStart := a.prevPos
	tok, pos, ok := a.next()
	if !ok {
		return &EngineError{Kind: UnexpectedEndOfInput, Pos: a.prevPos}
	}
	instr := a.prog.Instructions[top.ip]
	wanted := indexWanted(instr, top.arrayPos, top.satisfied)
	switch tok {
	case ']':
		if wanted && pos > elementStart {
			if err := a.recordScalarSpan(elementStart, pos, true); err != nil {
				return err
			}
		}
		return a.closeFrame(pos)
	case ',':
		if wanted && pos > elementStart {
			if err := a.recordScalarSpan(elementStart, pos, false); err != nil {
				return err
			}
		}
		top.arrayPos++
		a.markPos(pos)
		return nil
	case '{', '[':
		if wanted {
			if err := a.enterContainerValue(tok, pos, top.ip+1); err != nil {
				return err
			}
		} else {
			if _, err := a.skipToClose(); err != nil {
				return err
			}
			a.markPos(pos)
		}
		return nil
	default:
		return &EngineError{Kind: InvalidJSON, Pos: pos}
	}
}

// enterContainerValue handles a matched selector whose value begins with
// tok ('{' or '[', already consumed at pos). Depending on what the next
// instruction in the program needs, it either records the value's span
// directly (the query ends here), descends into it with a new frame (the
// query continues), or discards it (the container is the wrong kind for
// what the next segment needs).
func (a *Automaton) enterContainerValue(tok byte, pos, nextIP int) error {
	kind := ContainerObject
	if tok == '[' {
		kind = ContainerArray
	}
	if nextIP >= len(a.prog.Instructions) {
		return &QueryError{Msg: "program does not terminate in RecordResult"}
	}
	next := a.prog.Instructions[nextIP]
	if next.Op == OpRecordResult {
		closePos, err := a.skipToClose()
		if err != nil {
			return err
		}
		s, e := trimSpan(a.doc, a.prevPos, closePos+1)
		if e > s {
			a.results.Record(s, e)
		}
		a.markPos(closePos)
		return a.markDone(false)
	}
	if !containerWanted(next.Op, kind) {
		if _, err := a.skipToClose(); err != nil {
			return err
		}
		a.markPos(pos)
		return a.markDone(false)
	}
	selectorIP := nextIP
	if next.Op == OpOpenObject || next.Op == OpOpenArray {
		selectorIP = nextIP + 1
	}
	selector := a.prog.Instructions[selectorIP]
	nf := frame{kind: kind, ip: selectorIP, loop: selector.Op == OpWildcard || selector.Op == OpFindRange}
	nf.enter()
	a.stack = append(a.stack, nf)
	a.markPos(pos)
	return nil
}

// recordScalarSpan handles a matched selector whose value turned out to be
// a scalar spanning [start,end). If the query needed to descend further,
// this is simply not a match; if this was the final segment, the span is
// recorded. atClose is true when the token that produced this span was the
// enclosing container's own closing bracket: the frame has no remaining
// siblings to skip, and the caller pops it directly (closeFrame) right
// after, so the satisfied-ancestor cascade must not also try to skip past
// a close this frame has already reached.
func (a *Automaton) recordScalarSpan(start, end int, atClose bool) error {
	top := &a.stack[len(a.stack)-1]
	nextIP := top.ip + 1
	if nextIP >= len(a.prog.Instructions) || a.prog.Instructions[nextIP].Op != OpRecordResult {
		return a.markDone(atClose)
	}
	s, e := trimSpan(a.doc, start, end)
	if e > s {
		a.results.Record(s, e)
	}
	return a.markDone(atClose)
}

// closeFrame pops the frame that just reached its own closing bracket at
// pos, then marks its new parent (if any) satisfied — every frame on the
// stack exists only because its parent's selector matched it, so a frame
// closing always means the parent's match is now fully resolved.
func (a *Automaton) closeFrame(pos int) error {
	a.stack = a.stack[:len(a.stack)-1]
	a.markPos(pos)
	if len(a.stack) == 0 {
		return nil
	}
	parent := &a.stack[len(a.stack)-1]
	if !parent.loop {
		parent.satisfied = true
	}
	return a.finishSatisfiedAncestors()
}

// markDone resolves the current top frame's one-shot match when no frame
// was pushed for it (the value was a scalar, or a container of the wrong
// kind). Loop frames (Wildcard, FindRange) do nothing: more siblings may
// still match. atClose is true when the frame is already positioned at its
// own closing bracket (see recordScalarSpan): the caller pops it directly
// right after, so the cascade must not also try to skip past that close.
func (a *Automaton) markDone(atClose bool) error {
	top := &a.stack[len(a.stack)-1]
	if top.loop {
		return nil
	}
	top.satisfied = true
	if atClose {
		return nil
	}
	return a.finishSatisfiedAncestors()
}

// finishSatisfiedAncestors fast-forwards through every already-satisfied
// one-shot frame starting at the current stack top, skipping straight to
// each one's closing bracket instead of inspecting its remaining siblings,
// and cascades the same check to each frame's parent once it pops.
func (a *Automaton) finishSatisfiedAncestors() error {
	for len(a.stack) > 0 {
		top := &a.stack[len(a.stack)-1]
		if top.loop || !top.satisfied {
			return nil
		}
		closePos, err := a.skipToClose()
		if err != nil {
			return err
		}
		a.stack = a.stack[:len(a.stack)-1]
		a.markPos(closePos)
		if len(a.stack) == 0 {
			return nil
		}
		parent := &a.stack[len(a.stack)-1]
		if !parent.loop {
			parent.satisfied = true
		}
	}
	return nil
}

// skipToClose consumes structural tokens, starting just inside an already-
// opened container, until its matching close is found, and returns that
// close token's position.
func (a *Automaton) skipToClose() (int, error) {
	depth := 1
	for {
		tok, pos, ok := a.next()
		if !ok {
			return 0, &EngineError{Kind: UnbalancedStructures, Pos: a.prevPos}
		}
		switch tok {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return pos, nil
			}
		}
	}
}

func containerWanted(op Opcode, kind Container) bool {
	switch op {
	case OpOpenObject, OpFindKey:
		return kind == ContainerObject
	case OpOpenArray, OpFindIndex, OpFindRange:
		return kind == ContainerArray
	case OpWildcard:
		return true
	default:
		return false
	}
}

func indexWanted(instr Instruction, pos int, satisfied bool) bool {
	switch instr.Op {
	case OpFindIndex:
		return !satisfied && pos == instr.Lo
	case OpFindRange:
		return pos >= instr.Lo && pos < instr.Hi
	case OpWildcard:
		return true
	default:
		return false
	}
}

// unquoteKey strips the surrounding quotes and whitespace from the raw
// bytes of an object key as they appear between two structural tokens. It
// does not interpret \u or other JSON escapes: key comparison in FindKey
// is a literal byte match against the query's unescaped member name, which
// covers every key this module's own compiled queries can express.
func unquoteKey(raw []byte) string {
	s := bytes.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return string(s)
}

// trimSpan trims leading and trailing JSON whitespace from [start,end) so
// recorded spans point at the value itself, not at surrounding formatting.
func trimSpan(doc []byte, start, end int) (int, int) {
	for start < end && isJSONSpace(doc[start]) {
		start++
	}
	for end > start && isJSONSpace(doc[end-1]) {
		end--
	}
	return start, end
}

func isJSONSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
