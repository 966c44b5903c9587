package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/llm"
)

type fakeChat struct {
	reply    string
	err      error
	provider string
	message  string
}

func (f *fakeChat) Chat(_ context.Context, provider, message string) (string, error) {
	f.provider, f.message = provider, message
	return f.reply, f.err
}

func (f *fakeChat) Names() []string { return []string{"deepseek", "qwen"} }

func TestChatServiceReply(t *testing.T) {
	fake := &fakeChat{reply: "Hello there"}
	svc := NewChatService(fake, NewMetricsService(), nil, nil)

	reply, err := svc.Chat(context.Background(), models.ChatRequest{ModelType: " Qwen ", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "qwen", fake.provider)
	assert.Equal(t, "hi", fake.message)
	assert.Equal(t, &models.ChatReply{ModelType: "qwen", Message: "hi", Reply: "Hello there"}, reply)
	assert.Equal(t, []string{"deepseek", "qwen"}, svc.Providers())
}

func TestChatServiceErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewChatService(&fakeChat{}, nil, nil, nil)
	_, err := svc.Chat(ctx, models.ChatRequest{ModelType: "qwen"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	svc = NewChatService(&fakeChat{err: fmt.Errorf("%w: %q", llm.ErrUnknownProvider, "gpt")}, nil, nil, nil)
	_, err = svc.Chat(ctx, models.ChatRequest{ModelType: "gpt", Message: "hi"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidArgument))

	svc = NewChatService(&fakeChat{err: errors.New("401 invalid api key")}, nil, nil, nil)
	_, err = svc.Chat(ctx, models.ChatRequest{ModelType: "qwen", Message: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, 502, appErrors.FromError(err).Status)
}
