package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Conversation struct {
	Id         uuid.UUID              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Intent     string                 `gorm:"type:varchar(50);index"` // denormalised from Analytics for filtering
	Analytics  datatypes.JSON         `gorm:"type:jsonb"`
	DeviceInfo datatypes.JSON         `gorm:"type:jsonb"`
	Messages   []*ConversationMessage `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time              `gorm:"autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMessage rows are insert-only; (conversation_id, position) is unique.
type ConversationMessage struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_position"`
	Position       int       `gorm:"not null;uniqueIndex:idx_conversation_position"`
	Role           string    `gorm:"type:varchar(20);not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}
