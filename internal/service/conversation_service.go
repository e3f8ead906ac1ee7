package service

import (
	"context"
	"fmt"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/repository/specification"
	"shop-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IConversationService interface {
	List(ctx context.Context, req *dto.ConversationListRequest) (*dto.ConversationPageResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ConversationDetailResponse, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
	}
}

func (s *conversationService) List(ctx context.Context, req *dto.ConversationListRequest) (*dto.ConversationPageResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository()
	filter := specification.ByIntent{Intent: req.Intent}

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	conversations, err := repo.FindAll(ctx,
		filter,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Page: page, Limit: limit},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	items := make([]*dto.ConversationListResponse, len(conversations))
	for i, c := range conversations {
		items[i] = &dto.ConversationListResponse{
			Id:        c.Id,
			Analytics: toAnalyticsResponse(c.Analytics),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}

	return &dto.ConversationPageResponse{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *conversationService) Show(ctx context.Context, id uuid.UUID) (*dto.ConversationDetailResponse, error) {
	conversation, err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().FindById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages := make([]*dto.ConversationMessageResponse, len(conversation.Messages))
	for i, m := range conversation.Messages {
		messages[i] = &dto.ConversationMessageResponse{
			Position:  m.Position,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}

	return &dto.ConversationDetailResponse{
		Id:        conversation.Id,
		Messages:  messages,
		Analytics: toAnalyticsResponse(conversation.Analytics),
		DeviceInfo: dto.DeviceInfoResponse{
			UserAgent: conversation.DeviceInfo.UserAgent,
			Platform:  conversation.DeviceInfo.Platform,
			Language:  conversation.DeviceInfo.Language,
			IP:        conversation.DeviceInfo.IP,
		},
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}, nil
}

func toAnalyticsResponse(a *entity.Analytics) *dto.ConversationAnalyticsResponse {
	if a == nil {
		return nil
	}
	return &dto.ConversationAnalyticsResponse{
		Intent:         a.Intent,
		Category:       a.Category,
		Sentiment:      a.Sentiment,
		ProductContext: a.ProductContext,
		Converted:      a.Converted,
	}
}
