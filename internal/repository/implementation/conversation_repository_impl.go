package implementation

import (
	"context"
	"errors"
	"time"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/mapper"
	"shop-assistant-be/internal/model"
	"shop-assistant-be/internal/repository/contract"
	"shop-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.Id == uuid.Nil {
		conversation.Id = uuid.New()
	}
	m := r.mapper.ToModel(conversation)
	if err := r.db.WithContext(ctx).Omit("Messages").Create(m).Error; err != nil {
		return err
	}
	messages := conversation.Messages
	*conversation = *r.mapper.ToEntity(m)
	conversation.Messages = messages
	return nil
}

func (r *ConversationRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var m model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) AppendAndSave(ctx context.Context, id uuid.UUID, message entity.Message, analytics *entity.Analytics) (entity.Message, error) {
	if message.Role != entity.MessageRoleUser && message.Role != entity.MessageRoleAssistant {
		return entity.Message{}, entity.ErrInvalidMessageRole
	}

	var saved entity.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the conversation serialises concurrent appends so that
		// positions stay dense and unique.
		var conv model.Conversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			First(&conv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contract.ErrConversationNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.ConversationMessage{}).Where("conversation_id = ?", id).Count(&count).Error; err != nil {
			return err
		}

		if message.Id == uuid.Nil {
			message.Id = uuid.New()
		}
		if message.Timestamp.IsZero() {
			message.Timestamp = time.Now()
		}
		message.ConversationId = id
		message.Position = int(count)

		m := r.mapper.MessageToModel(message)
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if analytics != nil {
			updates["analytics"] = r.mapper.AnalyticsToJSON(analytics)
			updates["intent"] = analytics.Intent
		}
		if err := tx.Model(&model.Conversation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		saved = r.mapper.MessageToEntity(m)
		return nil
	})
	if err != nil {
		return entity.Message{}, err
	}
	return saved, nil
}

func (r *ConversationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	var models []*model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ConversationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Conversation{}).Count(&count).Error
	return count, err
}
