package nj

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPipelineStreamsAllStructuralPositions(t *testing.T) {
	doc := []byte(`{"a":1,"b":[1,2,3],"c":{"d":true}}`)
	p := newPipeline(doc, vectorWidth, 4, zerolog.Nop(), nil)
	p.start(context.Background())

	var got []int
	for {
		_, pos, ok := p.next()
		if !ok {
			break
		}
		got = append(got, pos)
	}
	if err := p.stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := buildStream(doc, vectorWidth)
	if len(got) != len(want) {
		t.Fatalf("got %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != int(want[i]) {
			t.Errorf("position[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPipelineStopBeforeExhaustionDoesNotHang(t *testing.T) {
	// A document big enough to need several chunks at a small chunk size,
	// with a shallow queue, so the producer is guaranteed to still be
	// blocked on a full ring when the consumer stops early.
	doc := make([]byte, 0, 4096)
	doc = append(doc, '{')
	for i := 0; i < 100; i++ {
		if i > 0 {
			doc = append(doc, ',')
		}
		doc = append(doc, []byte(`"k":1`)...)
	}
	doc = append(doc, '}')

	p := newPipeline(doc, vectorWidth, 2, zerolog.Nop(), nil)
	p.start(context.Background())

	// Consume exactly one structural position, then stop without draining
	// the rest: this mimics a query whose selector is satisfied by the
	// very first key.
	_, _, ok := p.next()
	if !ok {
		t.Fatal("next: expected at least one structural position")
	}

	done := make(chan error, 1)
	go func() { done <- p.stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return: producer likely deadlocked on a full ring")
	}
}
