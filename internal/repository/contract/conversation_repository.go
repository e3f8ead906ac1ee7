package contract

import (
	"context"
	"errors"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	// FindById loads the conversation with its messages ordered by position.
	// Returns nil, nil when the id is unknown.
	FindById(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	// AppendAndSave persists message as the next position of the conversation and
	// replaces the analytics summary when analytics is non-nil. Appends on the
	// same conversation are serialised.
	AppendAndSave(ctx context.Context, id uuid.UUID, message entity.Message, analytics *entity.Analytics) (entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
