package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/crud"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/llm"
)

type chatProvider interface {
	Chat(ctx context.Context, provider, message string) (string, error)
	Names() []string
}

// ChatService forwards user messages to a configured LLM provider.
type ChatService struct {
	llm       chatProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(provider chatProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = crud.NewValidator()
	}
	return &ChatService{llm: provider, metrics: metrics, validator: validate, logger: logger}
}

// Providers lists the selectable model types.
func (s *ChatService) Providers() []string {
	return s.llm.Names()
}

// Chat asks the provider named by req.ModelType to answer req.Message.
func (s *ChatService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	req.ModelType = strings.ToLower(strings.TrimSpace(req.ModelType))
	if err := s.validator.Struct(req); err != nil {
		return nil, crud.ValidationError(err, "invalid chat payload")
	}

	start := time.Now()
	reply, err := s.llm.Chat(ctx, req.ModelType, req.Message)
	s.metrics.ObserveChat(req.ModelType, err, time.Since(start))
	if err != nil {
		if errors.Is(err, llm.ErrUnknownProvider) {
			return nil, appErrors.InvalidArgument("unknown model_type " + req.ModelType)
		}
		s.logger.Warn("chat completion failed", zap.String("model_type", req.ModelType), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "chat provider request failed")
	}

	return &models.ChatReply{ModelType: req.ModelType, Message: req.Message, Reply: reply}, nil
}
