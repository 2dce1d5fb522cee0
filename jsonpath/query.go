// Package jsonpath implements the minimal JSONPath subset consumed by the nj
// query compiler: the root selector, member access, wildcard, bracketed
// index and bracketed half-open range. It knows nothing about the bytecode
// program or the document being queried; it only turns query text into an
// ordered list of Segments.
package jsonpath

import "fmt"

// SegmentKind identifies the concrete type held by a Segment.
type SegmentKind int

const (
	// Name selects a single object member by key, e.g. ".foo".
	Name SegmentKind = iota
	// Wildcard selects every child of the current container, e.g. ".*" or "[*]".
	Wildcard
	// Index selects a single array element by position, e.g. "[3]".
	Index
	// Range selects a half-open span of array elements, e.g. "[1:4]".
	Range
	// Descendant recursively selects a member by key at any depth, e.g. "..foo".
	// The parser accepts it; the compiler rejects it (see compile.go).
	Descendant
)

// Segment is one step of a parsed JSONPath query. Exactly one of the
// Kind-specific fields is meaningful for a given Kind.
type Segment struct {
	Kind SegmentKind

	// Member is set when Kind == Name.
	Member string

	// Index is set when Kind == Index.
	Index int

	// Lo, Hi describe the half-open range [Lo, Hi) when Kind == Range.
	Lo, Hi int
}

func (s Segment) String() string {
	switch s.Kind {
	case Name:
		return fmt.Sprintf(".%s", s.Member)
	case Wildcard:
		return "[*]"
	case Index:
		return fmt.Sprintf("[%d]", s.Index)
	case Range:
		return fmt.Sprintf("[%d:%d)", s.Lo, s.Hi)
	case Descendant:
		return fmt.Sprintf("..%s", s.Member)
	default:
		return "<invalid>"
	}
}

// Query is an ordered, compiler-ready list of path segments, rooted at "$".
type Query struct {
	Segments []Segment
}
