// Package llm adapts language-model engines into the relay pipeline. Engine
// output is modeled as a tagged Reply so extraction is a total match instead
// of attribute probing against whatever shape a backend happens to return.
package llm

import "context"

// Role tags a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of a conversation history, oldest first.
type Message struct {
	Role    Role
	Content string
}

// ReplyKind discriminates the shapes a backend can produce.
type ReplyKind int

const (
	// ReplyUnrecognized carries a stringified response no other case fits.
	ReplyUnrecognized ReplyKind = iota
	// ReplyText carries the model answer directly.
	ReplyText
	// ReplyStructured carries a candidate/content/part tree.
	ReplyStructured
)

// Part is a text-bearing fragment of a structured candidate.
type Part struct {
	Text string
}

// Candidate is one alternative answer in a structured reply.
type Candidate struct {
	Parts []Part
}

// Reply is the model output in exactly one of three shapes.
type Reply struct {
	Kind       ReplyKind
	Text       string
	Candidates []Candidate
	Raw        string
}

// TextReply wraps a plain text answer.
func TextReply(s string) Reply { return Reply{Kind: ReplyText, Text: s} }

// StructuredReply wraps a candidate tree.
func StructuredReply(c []Candidate) Reply { return Reply{Kind: ReplyStructured, Candidates: c} }

// RawReply wraps a stringified response of unknown shape.
func RawReply(s string) Reply { return Reply{Kind: ReplyUnrecognized, Raw: s} }

// Flatten extracts the answer text. For structured replies it takes the first
// text-bearing part in candidate order; for unrecognized replies it returns
// the raw rendering. The caller decides whether an empty result means "no
// answer".
func (r Reply) Flatten() string {
	switch r.Kind {
	case ReplyText:
		return r.Text
	case ReplyStructured:
		for _, c := range r.Candidates {
			for _, p := range c.Parts {
				if p.Text != "" {
					return p.Text
				}
			}
		}
		return ""
	default:
		return r.Raw
	}
}

// Generator defines a pluggable LLM backend. History is ordered oldest first
// and may be empty.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Message) (Reply, error)
}
