package services

import (
	"context"
	"errors"
)

// ErrGatewayAuth marks provider rejections of the configured credentials.
var ErrGatewayAuth = errors.New("model provider rejected the API key")

// ErrModelRequest wraps every failure returned by a gateway call.
var ErrModelRequest = errors.New("model request failed")

var ErrEmptyConversation = errors.New("conversation has no messages to send")

// Turn is one role/content pair sent to the model, oldest first.
type Turn struct {
	Role    string
	Content string
}

type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	Model        string
}

// ModelGateway sends a conversation to a hosted model and returns its reply.
type ModelGateway interface {
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (*Completion, error)
	Name() string
}

// Pricing converts token usage into USD with per-token rates.
type Pricing struct {
	InputRate  float64
	OutputRate float64
}

func (p Pricing) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)*p.InputRate + float64(outputTokens)*p.OutputRate
}
