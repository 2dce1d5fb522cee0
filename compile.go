package nj

import "github.com/nj-engine/nj/jsonpath"

// Compile translates a parsed query into a bytecode Program. A Name segment
// becomes an object open paired with a key search; an Index or Range
// segment becomes an array open paired with the matching selector; a
// Wildcard segment becomes a single container-agnostic instruction, since
// "$.items[*]" and "$.items.*" both mean "every value of items" regardless
// of whether that value turns out to be an object or an array. Every
// program ends in OpRecordResult.
//
// Descendant segments are accepted by the parser but rejected here: this
// module's automaton only tracks one container at a time per segment and
// has no way to search arbitrarily many nesting levels for a name.
func Compile(q jsonpath.Query) (*Program, error) {
	var prog Program
	for _, seg := range q.Segments {
		switch seg.Kind {
		case jsonpath.Name:
			prog.Instructions = append(prog.Instructions,
				Instruction{Op: OpOpenObject},
				Instruction{Op: OpFindKey, Key: seg.Member},
			)
		case jsonpath.Index:
			prog.Instructions = append(prog.Instructions,
				Instruction{Op: OpOpenArray},
				Instruction{Op: OpFindIndex, Lo: seg.Index},
			)
		case jsonpath.Range:
			prog.Instructions = append(prog.Instructions,
				Instruction{Op: OpOpenArray},
				Instruction{Op: OpFindRange, Lo: seg.Lo, Hi: seg.Hi},
			)
		case jsonpath.Wildcard:
			prog.Instructions = append(prog.Instructions, Instruction{Op: OpWildcard})
		case jsonpath.Descendant:
			return nil, &QueryError{Msg: "descendant segments (.." + seg.Member + ") are not supported"}
		default:
			return nil, &QueryError{Msg: "unknown segment kind"}
		}
	}
	prog.Instructions = append(prog.Instructions, Instruction{Op: OpRecordResult})
	return &prog, nil
}
