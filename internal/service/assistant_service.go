package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/internal/repository/contract"
	"shop-assistant-be/internal/repository/unitofwork"
	"shop-assistant-be/pkg/events/chatevents"
	"shop-assistant-be/pkg/llm"
	"shop-assistant-be/pkg/rag/intent"
	"shop-assistant-be/pkg/rag/prompt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyMessage         = errors.New("message is required")
	ErrConversationNotFound = contract.ErrConversationNotFound
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

const defaultHistoryLimit = 10

// Retriever finds catalog items relevant to a message.
type Retriever interface {
	Retrieve(ctx context.Context, message string) ([]entity.RetrievedItem, error)
}

// Classifier labels a message. It must not fail.
type Classifier interface {
	Classify(ctx context.Context, message string) intent.Classification
}

// Generator produces the assistant reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error)
}

type IAssistantService interface {
	HandleTurn(ctx context.Context, req *dto.ChatRequest, clientIP string) (*dto.ChatResponse, error)
}

type AssistantConfig struct {
	HistoryLimit int
	StoreURL     string
}

type assistantService struct {
	uowFactory unitofwork.RepositoryFactory
	retriever  Retriever
	classifier Classifier
	generator  Generator
	events     chatevents.Publisher
	cfg        AssistantConfig
	logger     logger.ILogger
}

func NewAssistantService(
	uowFactory unitofwork.RepositoryFactory,
	retriever Retriever,
	classifier Classifier,
	generator Generator,
	events chatevents.Publisher,
	cfg AssistantConfig,
	log logger.ILogger,
) IAssistantService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if events == nil {
		events = chatevents.NewNatsPublisher(nil, log)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &assistantService{
		uowFactory: uowFactory,
		retriever:  retriever,
		classifier: classifier,
		generator:  generator,
		events:     events,
		cfg:        cfg,
		logger:     log,
	}
}

// HandleTurn runs one chat exchange. The customer's message is persisted
// before generation and stays in the ledger even when no reply is produced.
func (s *assistantService) HandleTurn(ctx context.Context, req *dto.ChatRequest, clientIP string) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository()

	conversation, err := s.resolveConversation(ctx, repo, req, clientIP)
	if err != nil {
		return nil, err
	}

	_, err = repo.AppendAndSave(ctx, conversation.Id, entity.Message{
		Role:      entity.MessageRoleUser,
		Content:   message,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	items, classification := s.enrich(ctx, message)

	promptText := prompt.NewContextualBuilder(message, items, classification, s.history(req, conversation)).
		WithStoreURL(s.cfg.StoreURL).
		Build()

	reply, err := s.generator.Generate(ctx, promptText)
	if err != nil {
		s.logger.Error("ASSISTANT", "Generation failed, turn left unanswered", map[string]interface{}{
			"conversation_id": conversation.Id,
			"error":           err.Error(),
		})
		s.events.PublishTurnFailed(ctx, conversation.Id, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}

	analytics := buildAnalytics(conversation.Analytics, classification, items)

	_, err = repo.AppendAndSave(ctx, conversation.Id, entity.Message{
		Role:      entity.MessageRoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}, analytics)
	if err != nil {
		// The customer still gets the answer; the ledger misses this reply.
		s.logger.Error("ASSISTANT", "Failed to persist assistant message", map[string]interface{}{
			"conversation_id": conversation.Id,
			"error":           err.Error(),
		})
	}

	s.events.PublishTurnCompleted(ctx, conversation.Id, analytics.Intent, analytics.ProductContext, analytics.Converted)

	return &dto.ChatResponse{
		Response:       reply,
		ConversationId: conversation.Id,
	}, nil
}

func (s *assistantService) resolveConversation(ctx context.Context, repo contract.ConversationRepository, req *dto.ChatRequest, clientIP string) (*entity.Conversation, error) {
	if req.ConversationId != "" {
		id, err := uuid.Parse(req.ConversationId)
		if err != nil {
			return nil, ErrConversationNotFound
		}
		conversation, err := repo.FindById(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		if conversation == nil {
			return nil, ErrConversationNotFound
		}
		return conversation, nil
	}

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		CreatedAt: time.Now(),
		DeviceInfo: entity.DeviceInfo{
			IP: clientIP,
		},
	}
	if req.DeviceInfo != nil {
		conversation.DeviceInfo.UserAgent = req.DeviceInfo.UserAgent
		conversation.DeviceInfo.Platform = req.DeviceInfo.Platform
		conversation.DeviceInfo.Language = req.DeviceInfo.Language
	}
	if err := repo.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// enrich runs retrieval and classification side by side. Neither can fail
// the turn: retrieval errors give an empty context and the classifier has
// its own neutral fallback.
func (s *assistantService) enrich(ctx context.Context, message string) ([]entity.RetrievedItem, intent.Classification) {
	var items []entity.RetrievedItem
	var classification intent.Classification

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.retriever.Retrieve(gctx, message)
		if err != nil {
			s.logger.Warn("ASSISTANT", "Retrieval failed, answering without catalog context", map[string]interface{}{
				"error": err.Error(),
			})
			return nil
		}
		items = found
		return nil
	})
	g.Go(func() error {
		classification = s.classifier.Classify(gctx, message)
		return nil
	})
	_ = g.Wait()

	return items, classification
}

// history prefers the caller's copy of the conversation and falls back to
// the stored ledger. Either way only the last HistoryLimit turns are kept.
func (s *assistantService) history(req *dto.ChatRequest, conversation *entity.Conversation) []llm.Message {
	if len(req.History) > 0 {
		h := req.History
		if len(h) > s.cfg.HistoryLimit {
			h = h[len(h)-s.cfg.HistoryLimit:]
		}
		out := make([]llm.Message, len(h))
		for i, m := range h {
			out[i] = llm.Message{Role: m.Role, Content: m.Content}
		}
		return out
	}

	stored := conversation.LastMessages(s.cfg.HistoryLimit)
	out := make([]llm.Message, len(stored))
	for i, m := range stored {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func buildAnalytics(previous *entity.Analytics, classification intent.Classification, items []entity.RetrievedItem) *entity.Analytics {
	productIds := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIds[i] = item.ProductId
	}

	converted := classification.Intent == intent.IntentPurchase
	if previous != nil && previous.Converted {
		converted = true
	}

	return &entity.Analytics{
		Intent:         classification.Intent,
		Category:       classification.Category,
		Sentiment:      classification.Sentiment,
		ProductContext: productIds,
		Converted:      converted,
	}
}
