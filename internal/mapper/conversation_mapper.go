package mapper

import (
	"encoding/json"
	"time"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var analytics *entity.Analytics
	if len(c.Analytics) > 0 {
		var a entity.Analytics
		if err := json.Unmarshal(c.Analytics, &a); err == nil {
			analytics = &a
		}
	}

	var deviceInfo entity.DeviceInfo
	if len(c.DeviceInfo) > 0 {
		_ = json.Unmarshal(c.DeviceInfo, &deviceInfo)
	}

	messages := make([]entity.Message, 0, len(c.Messages))
	for _, msg := range c.Messages {
		messages = append(messages, m.MessageToEntity(msg))
	}

	return &entity.Conversation{
		Id:         c.Id,
		Messages:   messages,
		Analytics:  analytics,
		DeviceInfo: deviceInfo,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

// ToModel maps the conversation header only. Messages are written through
// AppendAndSave, one row at a time.
func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	res := &model.Conversation{
		Id:         c.Id,
		Analytics:  m.AnalyticsToJSON(c.Analytics),
		DeviceInfo: toJSON(c.DeviceInfo),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
	if c.Analytics != nil {
		res.Intent = c.Analytics.Intent
	}
	return res
}

func (m *ConversationMapper) AnalyticsToJSON(a *entity.Analytics) datatypes.JSON {
	if a == nil {
		return nil
	}
	return toJSON(a)
}

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) entity.Message {
	return entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Position:       msg.Position,
		Role:           msg.Role,
		Content:        msg.Content,
		Timestamp:      msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg entity.Message) *model.ConversationMessage {
	return &model.ConversationMessage{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Position:       msg.Position,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.Timestamp,
	}
}

func (m *ConversationMapper) ToEntities(conversations []*model.Conversation) []*entity.Conversation {
	entities := make([]*entity.Conversation, len(conversations))
	for i, c := range conversations {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
