package nj

import (
	"testing"

	"github.com/bytedance/sonic"
)

func TestEngineRunSimpleMember(t *testing.T) {
	engine, err := NewEngine(WithChunkSize(vectorWidth), WithQueueDepth(2))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	doc := []byte(`{"a":1,"b":2}`)
	results, err := engine.Run(doc, "$.a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertResults(t, doc, results, []string{"1"})
}

func TestEngineRunAgainstSonicOracle(t *testing.T) {
	engine, err := NewEngine(WithChunkSize(vectorWidth))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	doc := []byte(`{"items":[{"v":1},{"v":2},{"v":3}],"tag":"ok"}`)

	results, err := engine.Run(doc, "$.items[1].v")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var decoded struct {
		Items []struct {
			V int `json:"v"`
		} `json:"items"`
	}
	if err := sonic.Unmarshal(doc, &decoded); err != nil {
		t.Fatalf("sonic.Unmarshal: %v", err)
	}

	text, err := results.Extract(0, doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var got int
	if err := sonic.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("sonic.Unmarshal(%q): %v", text, err)
	}
	if got != decoded.Items[1].V {
		t.Errorf("extracted value %d, want %d (from independent decode)", got, decoded.Items[1].V)
	}
}

func TestEngineRunRejectsDescendantQuery(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run([]byte(`{"a":{"b":1}}`), "$..b")
	if err == nil {
		t.Fatal("Run: expected error for descendant query")
	}
}

func TestEngineRunEmptyDocumentYieldsNoResults(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	results, err := engine.Run(nil, "$.a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results.Count() != 0 {
		t.Fatalf("got %d results, want 0", results.Count())
	}
}

func TestNewEngineRejectsInvalidChunkSize(t *testing.T) {
	_, err := NewEngine(WithChunkSize(100))
	if err == nil {
		t.Fatal("NewEngine: expected error for non-power-of-two chunk size")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("error type = %T, want *ConfigError", err)
	}
}

func TestNewEngineRejectsShallowQueueDepth(t *testing.T) {
	_, err := NewEngine(WithQueueDepth(1))
	if err == nil {
		t.Fatal("NewEngine: expected error for queue depth < 2")
	}
}

func TestEngineRunMultiChunkMatchesSingleChunk(t *testing.T) {
	doc := []byte(`{"a":{"b":[10,20,30,40,50,60,70,80,90,100,110,120,130,140,150,160,170,180,190,200]}}`)

	small, err := NewEngine(WithChunkSize(vectorWidth))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	big, err := NewEngine(WithChunkSize(DefaultChunkSize))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	smallResults, err := small.Run(doc, "$.a.b[3:7]")
	if err != nil {
		t.Fatalf("Run (small chunk): %v", err)
	}
	bigResults, err := big.Run(doc, "$.a.b[3:7]")
	if err != nil {
		t.Fatalf("Run (large chunk): %v", err)
	}

	if smallResults.Count() != bigResults.Count() {
		t.Fatalf("result count differs by chunk size: %d vs %d", smallResults.Count(), bigResults.Count())
	}
	for i := 0; i < smallResults.Count(); i++ {
		a, _ := smallResults.Extract(i, doc)
		b, _ := bigResults.Extract(i, doc)
		if a != b {
			t.Errorf("result[%d]: small-chunk=%q large-chunk=%q", i, a, b)
		}
	}
}
