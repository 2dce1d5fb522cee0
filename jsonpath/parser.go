package jsonpath

import "fmt"

// Parse compiles a query string into a Query. Supported grammar:
//
//	$              root
//	.name          member access
//	..name         descendant (parsed, rejected by the compiler)
//	.*  [*]        wildcard
//	[n]            index
//	[a:b]          half-open range
//
// Filters, negative indices and function expressions are not part of this
// grammar; the lexer/parser simply never produce them.
func Parse(query string) (Query, error) {
	lexer := NewLexer(query)

	first, err := lexer.Consume()
	if err != nil {
		return Query{}, err
	}
	if first.Kind != TokenRoot {
		return Query{}, &Error{Msg: "query must start with root ($)"}
	}

	var q Query
	for !lexer.AtEnd() {
		seg, err := parseSegment(lexer)
		if err != nil {
			return Query{}, err
		}
		q.Segments = append(q.Segments, seg)
	}
	return q, nil
}

func parseSegment(lexer *Lexer) (Segment, error) {
	tok, err := lexer.Consume()
	if err != nil {
		return Segment{}, err
	}
	switch tok.Kind {
	case TokenMember:
		next, err := lexer.Peek()
		if err != nil {
			return Segment{}, err
		}
		if next.Kind == TokenOpenBracket {
			lexer.Consume()
			return parseSelectorSegment(lexer)
		}
		return parseMemberSegment(lexer)
	case TokenDescendant:
		return parseDescendantSegment(lexer)
	case TokenOpenBracket:
		seg, err := parseSelectorSegment(lexer)
		if err != nil {
			return Segment{}, err
		}
		closing, err := lexer.Consume()
		if err != nil {
			return Segment{}, err
		}
		if err := expect(closing, TokenCloseBracket); err != nil {
			return Segment{}, err
		}
		return seg, nil
	default:
		return Segment{}, unexpectedToken(tok)
	}
}

func parseMemberSegment(lexer *Lexer) (Segment, error) {
	tok, err := lexer.Consume()
	if err != nil {
		return Segment{}, err
	}
	switch tok.Kind {
	case TokenName:
		return Segment{Kind: Name, Member: tok.Text}, nil
	case TokenWildcard:
		return Segment{Kind: Wildcard}, nil
	default:
		return Segment{}, unexpectedToken(tok)
	}
}

func parseDescendantSegment(lexer *Lexer) (Segment, error) {
	tok, err := lexer.Consume()
	if err != nil {
		return Segment{}, err
	}
	if tok.Kind != TokenName {
		return Segment{}, unexpectedToken(tok)
	}
	return Segment{Kind: Descendant, Member: tok.Text}, nil
}

// parseSelectorSegment parses the content of a bracket selector: a number
// (index), a number followed by a colon and another number (range), or a
// wildcard. The surrounding brackets are consumed by the caller.
func parseSelectorSegment(lexer *Lexer) (Segment, error) {
	tok, err := lexer.Consume()
	if err != nil {
		return Segment{}, err
	}
	switch tok.Kind {
	case TokenWildcard:
		return Segment{Kind: Wildcard}, nil
	case TokenNumber:
		lo := tok.Number()
		next, err := lexer.Peek()
		if err != nil {
			return Segment{}, err
		}
		if next.Kind != TokenColon {
			return Segment{Kind: Index, Index: lo}, nil
		}
		lexer.Consume()
		hiTok, err := lexer.Consume()
		if err != nil {
			return Segment{}, err
		}
		if hiTok.Kind != TokenNumber {
			return Segment{}, unexpectedToken(hiTok)
		}
		return Segment{Kind: Range, Lo: lo, Hi: hiTok.Number()}, nil
	default:
		return Segment{}, unexpectedToken(tok)
	}
}

func expect(tok Token, want TokenKind) error {
	if tok.Kind != want {
		return unexpectedToken(tok)
	}
	return nil
}

func unexpectedToken(tok Token) error {
	return &Error{Msg: fmt.Sprintf("unexpected %s token at %d", tok.Kind, tok.Pos)}
}
