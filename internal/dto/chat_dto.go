package dto

import (
	"github.com/google/uuid"
)

type ChatHistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type DeviceInfoRequest struct {
	UserAgent string `json:"userAgent,omitempty" validate:"max=512"`
	Platform  string `json:"platform,omitempty" validate:"max=64"`
	Language  string `json:"language,omitempty" validate:"max=32"`
}

type ChatRequest struct {
	Message        string               `json:"message" validate:"required,max=4000"`
	History        []ChatHistoryMessage `json:"history,omitempty" validate:"max=50,dive"`
	ConversationId string               `json:"conversationId,omitempty" validate:"omitempty,uuid"`
	DeviceInfo     *DeviceInfoRequest   `json:"deviceInfo,omitempty"`
}

type ChatResponse struct {
	Response       string    `json:"response"`
	ConversationId uuid.UUID `json:"conversationId"`
}
