package dto

import (
	"time"

	"github.com/google/uuid"
)

type ConversationListRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Intent string `query:"intent"`
}

type ConversationAnalyticsResponse struct {
	Intent         string      `json:"intent"`
	Category       string      `json:"category"`
	Sentiment      string      `json:"sentiment"`
	ProductContext []uuid.UUID `json:"product_context"`
	Converted      bool        `json:"converted"`
}

type ConversationListResponse struct {
	Id        uuid.UUID                      `json:"id"`
	Analytics *ConversationAnalyticsResponse `json:"analytics"`
	CreatedAt time.Time                      `json:"created_at"`
	UpdatedAt *time.Time                     `json:"updated_at"`
}

type ConversationPageResponse struct {
	Items []*ConversationListResponse `json:"items"`
	Total int64                       `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}

type ConversationMessageResponse struct {
	Position  int       `json:"position"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type DeviceInfoResponse struct {
	UserAgent string `json:"user_agent,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Language  string `json:"language,omitempty"`
	IP        string `json:"ip,omitempty"`
}

type ConversationDetailResponse struct {
	Id         uuid.UUID                      `json:"id"`
	Messages   []*ConversationMessageResponse `json:"messages"`
	Analytics  *ConversationAnalyticsResponse `json:"analytics"`
	DeviceInfo DeviceInfoResponse             `json:"device_info"`
	CreatedAt  time.Time                      `json:"created_at"`
	UpdatedAt  *time.Time                     `json:"updated_at"`
}

type ReindexProductResponse struct {
	ProductId uuid.UUID `json:"product_id"`
	Queued    bool      `json:"queued"`
}

type PublishProductIndexMessage struct {
	ProductId uuid.UUID `json:"product_id"`
}
