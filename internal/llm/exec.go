package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execGenerator struct {
	cmd []string
	mu  sync.Mutex
}

type execPrompt struct {
	Prompt  string        `json:"prompt"`
	History []execMessage `json:"history"`
}

type execMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type execReply struct {
	Text string `json:"text"`
}

// NewExecGenerator returns a Generator that shells out to a local command.
// The command receives the prompt and history as JSON on stdin and must
// print a JSON object with the generated text.
func NewExecGenerator(command string) (Generator, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse llm command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("llm command is empty")
	}
	return &execGenerator{cmd: args}, nil
}

func (g *execGenerator) Generate(ctx context.Context, prompt string, history []Message) (Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	payload := execPrompt{Prompt: prompt, History: make([]execMessage, 0, len(history))}
	for _, m := range history {
		payload.History = append(payload.History, execMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, err
	}

	base := g.cmd[0]
	args := append([]string{}, g.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Reply{}, fmt.Errorf("llm command failed: %w: %s", err, stderr.String())
	}

	var out execReply
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return Reply{}, fmt.Errorf("decode llm response: %w", err)
	}
	return TextReply(out.Text), nil
}
