package nj

import (
	"testing"

	"github.com/nj-engine/nj/jsonpath"
)

func mustCompile(t *testing.T, query string) *Program {
	t.Helper()
	q, err := jsonpath.Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q): %v", query, err)
	}
	prog, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(%q): %v", query, err)
	}
	return prog
}

func TestCompileNameSegment(t *testing.T) {
	prog := mustCompile(t, "$.a")
	want := []Opcode{OpOpenObject, OpFindKey, OpRecordResult}
	if len(prog.Instructions) != len(want) {
		t.Fatalf("got %d instructions, want %d: %v", len(prog.Instructions), len(want), prog.Instructions)
	}
	for i, op := range want {
		if prog.Instructions[i].Op != op {
			t.Errorf("instruction[%d].Op = %v, want %v", i, prog.Instructions[i].Op, op)
		}
	}
	if prog.Instructions[1].Key != "a" {
		t.Errorf("FindKey.Key = %q, want %q", prog.Instructions[1].Key, "a")
	}
	if depth := prog.Depth(1); depth != 1 {
		t.Errorf("Depth(FindKey) = %d, want 1", depth)
	}
}

func TestCompileNestedPath(t *testing.T) {
	prog := mustCompile(t, "$.items[2].name")
	// Name "items" compiles to OpenObject+FindKey, then Index compiles to
	// OpenArray+FindIndex, then Name "name" compiles to OpenObject+FindKey.
	full := []Opcode{OpOpenObject, OpFindKey, OpOpenArray, OpFindIndex, OpOpenObject, OpFindKey, OpRecordResult}
	if len(prog.Instructions) != len(full) {
		t.Fatalf("got %d instructions, want %d: %v", len(prog.Instructions), len(full), prog.Instructions)
	}
	for i, op := range full {
		if prog.Instructions[i].Op != op {
			t.Errorf("instruction[%d].Op = %v, want %v", i, prog.Instructions[i].Op, op)
		}
	}
	if prog.Instructions[1].Key != "items" {
		t.Errorf("first FindKey.Key = %q, want %q", prog.Instructions[1].Key, "items")
	}
	if prog.Instructions[3].Lo != 2 {
		t.Errorf("FindIndex.Lo = %d, want 2", prog.Instructions[3].Lo)
	}
	if prog.Instructions[5].Key != "name" {
		t.Errorf("second FindKey.Key = %q, want %q", prog.Instructions[5].Key, "name")
	}
}

func TestCompileRangeSegment(t *testing.T) {
	prog := mustCompile(t, "$.items[1:4]")
	for _, instr := range prog.Instructions {
		if instr.Op == OpFindRange {
			if instr.Lo != 1 || instr.Hi != 4 {
				t.Errorf("FindRange = [%d,%d), want [1,4)", instr.Lo, instr.Hi)
			}
			return
		}
	}
	t.Fatalf("no OpFindRange instruction in %v", prog.Instructions)
}

func TestCompileWildcard(t *testing.T) {
	prog := mustCompile(t, "$.items[*]")
	found := false
	for _, instr := range prog.Instructions {
		if instr.Op == OpWildcard {
			found = true
		}
	}
	if !found {
		t.Fatalf("no OpWildcard instruction in %v", prog.Instructions)
	}
}

func TestCompileRejectsDescendant(t *testing.T) {
	q, err := jsonpath.Parse("$..a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Compile(q)
	if err == nil {
		t.Fatal("Compile: expected error for descendant segment, got nil")
	}
	if _, ok := err.(*QueryError); !ok {
		t.Errorf("Compile: error type = %T, want *QueryError", err)
	}
}

func TestCompileAlwaysTerminatesInRecordResult(t *testing.T) {
	for _, query := range []string{"$", "$.a", "$.a.b", "$.items[*]", "$.items[0:2]"} {
		prog := mustCompile(t, query)
		last := prog.Instructions[len(prog.Instructions)-1]
		if last.Op != OpRecordResult {
			t.Errorf("query %q: last instruction = %v, want OpRecordResult", query, last.Op)
		}
	}
}
