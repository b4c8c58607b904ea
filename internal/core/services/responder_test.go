package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type slowLLM struct {
	delay time.Duration
	reply string
}

func (s *slowLLM) Generate(ctx context.Context, _, _ string) (string, error) {
	select {
	case <-time.After(s.delay):
		return s.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *slowLLM) ModelName() string { return "slow-llm" }
func (s *slowLLM) Close() error      { return nil }

func TestRespond_PassesThroughReply(t *testing.T) {
	llm := &mockLLM{reply: "a fine answer"}
	r := NewResponder(llm, time.Second)

	got := r.Respond(context.Background(), "system", "user question")
	assert.Equal(t, "a fine answer", got)
	assert.Equal(t, "system", llm.lastSystem)
	assert.Equal(t, "user question", llm.lastMessage)
}

func TestRespond_ErrorReturnsApology(t *testing.T) {
	r := NewResponder(&mockLLM{err: errors.New("rate limited")}, time.Second)
	assert.Equal(t, Apology, r.Respond(context.Background(), "s", "u"))
}

func TestRespond_EmptyReplyReturnsApology(t *testing.T) {
	r := NewResponder(&mockLLM{reply: ""}, time.Second)
	assert.Equal(t, Apology, r.Respond(context.Background(), "s", "u"))
}

func TestRespond_TimeoutReturnsApology(t *testing.T) {
	r := NewResponder(&slowLLM{delay: time.Second, reply: "too late"}, 10*time.Millisecond)
	assert.Equal(t, Apology, r.Respond(context.Background(), "s", "u"))
}
