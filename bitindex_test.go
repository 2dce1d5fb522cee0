package nj

import "testing"

func TestPrefixXORLaw(t *testing.T) {
	cases := []uint64{0, 1, 0xFF, 0xAAAAAAAAAAAAAAAA, 0x8000000000000001, ^uint64(0)}
	for _, x := range cases {
		y := prefixXOR(x)
		if got := y ^ (y << 1); got != x {
			t.Errorf("prefixXOR(%#x): law violated, got %#x want %#x", x, got, x)
		}
	}
}

func TestMatchByte(t *testing.T) {
	block := []byte(`{"a":1,"b":2}`)
	mask := matchByte(block, ':')
	want := uint64(0)
	for i, b := range block {
		if b == ':' {
			want |= 1 << uint(i)
		}
	}
	if mask != want {
		t.Fatalf("matchByte: got %064b want %064b", mask, want)
	}
}

func TestMatchStructural(t *testing.T) {
	block := []byte(`{"a":[1,2]}`)
	mask := matchStructural(block)
	want := uint64(0)
	for i, b := range block {
		if isStructuralByte(b) {
			want |= 1 << uint(i)
		}
	}
	if mask != want {
		t.Fatalf("matchStructural: got %064b want %064b", mask, want)
	}
}

// scalarEscaped is the byte-by-byte oracle §8 requires the bit-trick
// escapedMask to match: a byte is escaped if it is immediately preceded by
// an odd-length run of backslashes (chained across the whole input via
// carryIn).
func scalarEscaped(block []byte, carryIn bool) (mask uint64, carryOut bool) {
	runParity := carryIn
	for i, b := range block {
		if runParity {
			mask |= 1 << uint(i)
		}
		if b == '\\' {
			runParity = !runParity
		} else {
			runParity = false
		}
	}
	return mask, runParity
}

func TestEscapedMaskMatchesScalarOracle(t *testing.T) {
	cases := []struct {
		name    string
		block   string
		carryIn bool
	}{
		{"no backslashes", `{"a":1}`, false},
		{"single backslash", `"a\"b"`, false},
		{"double backslash", `"a\\b"`, false},
		{"triple backslash", `"a\\\b"`, false},
		{"carry in odd", `b"`, true},
		{"odd run of five", `\\\\\`, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			block := []byte(c.block)
			for len(block) < vectorWidth {
				block = append(block, ' ')
			}
			s := matchByte(block, '\\')
			prevEscaped := uint64(0)
			if c.carryIn {
				prevEscaped = 1
			}
			got := escapedMask(s, &prevEscaped)
			wantMask, wantCarryOut := scalarEscaped(block, c.carryIn)
			if got != wantMask {
				t.Errorf("escapedMask: got %064b want %064b", got, wantMask)
			}
			gotCarryOut := prevEscaped&1 != 0
			if gotCarryOut != wantCarryOut {
				t.Errorf("carry out: got %v want %v", gotCarryOut, wantCarryOut)
			}
		})
	}
}

func TestExtractBitsImplementationsAgree(t *testing.T) {
	masks := []uint64{0, 1, 0xFF00FF00, ^uint64(0), 0x8000000000000001}
	for _, mask := range masks {
		scalar := extractBitsScalar(mask, 100, nil)
		popcnt := extractBitsPopcnt(mask, 100, nil)
		if len(scalar) != len(popcnt) {
			t.Fatalf("mask %#x: length mismatch scalar=%d popcnt=%d", mask, len(scalar), len(popcnt))
		}
		for i := range scalar {
			if scalar[i] != popcnt[i] {
				t.Errorf("mask %#x: position %d differs: scalar=%d popcnt=%d", mask, i, scalar[i], popcnt[i])
			}
		}
	}
}
