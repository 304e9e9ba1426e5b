package llm

import "testing"

func TestFlattenText(t *testing.T) {
	if got := TextReply("hello").Flatten(); got != "hello" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlattenStructuredTakesFirstTextPart(t *testing.T) {
	r := StructuredReply([]Candidate{
		{Parts: []Part{{Text: ""}, {Text: "first"}}},
		{Parts: []Part{{Text: "second"}}},
	})
	if got := r.Flatten(); got != "first" {
		t.Fatalf("expected first text-bearing part, got %q", got)
	}
}

func TestFlattenStructuredEmpty(t *testing.T) {
	r := StructuredReply([]Candidate{{Parts: nil}})
	if got := r.Flatten(); got != "" {
		t.Fatalf("expected empty answer, got %q", got)
	}
}

func TestFlattenUnrecognized(t *testing.T) {
	if got := RawReply("<opaque>").Flatten(); got != "<opaque>" {
		t.Fatalf("expected raw rendering, got %q", got)
	}
}
