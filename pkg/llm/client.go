// Package llm sends single-turn chat completions to OpenAI-compatible providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noah-isme/adminkit/pkg/config"
)

// DefaultSystemPrompt primes every conversation.
const DefaultSystemPrompt = "You are a helpful assistant."

var (
	// ErrUnknownProvider is returned for a provider name that is not configured.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrEmptyReply is returned when a provider answers without any choice.
	ErrEmptyReply = errors.New("llm provider returned no choices")
)

// Completer is the subset of the go-openai client used here.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider is one configured endpoint and model.
type Provider struct {
	Name   string
	Model  string
	client Completer
}

// NewProvider builds a provider talking to baseURL with apiKey.
func NewProvider(name string, cfg config.LLMProvider) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Provider{Name: name, Model: cfg.Model, client: openai.NewClientWithConfig(clientCfg)}
}

// Registry resolves provider names to clients.
type Registry struct {
	providers    map[string]*Provider
	timeout      time.Duration
	systemPrompt string
}

// NewRegistry creates a registry with one provider per configured entry.
func NewRegistry(cfg config.LLMConfig) *Registry {
	r := &Registry{
		providers:    make(map[string]*Provider, len(cfg.Providers)),
		timeout:      cfg.Timeout,
		systemPrompt: DefaultSystemPrompt,
	}
	for name, p := range cfg.Providers {
		r.Register(NewProvider(name, p))
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p *Provider) {
	r.providers[strings.ToLower(p.Name)] = p
}

// Names lists the configured providers in name order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chat sends message to the named provider and returns the first reply.
func (r *Registry) Chat(ctx context.Context, provider, message string) (string, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.Name, ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}
