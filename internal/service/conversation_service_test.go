package service

import (
	"context"
	"testing"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_List_DefaultsPaging(t *testing.T) {
	factory := newFakeFactory()
	repo := factory.uow.conversations
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(context.Background(), &entity.Conversation{Id: uuid.New()}))
	}
	svc := NewConversationService(factory)

	tests := []struct {
		name      string
		req       dto.ConversationListRequest
		wantPage  int
		wantLimit int
	}{
		{name: "zero values", req: dto.ConversationListRequest{}, wantPage: 1, wantLimit: 20},
		{name: "limit too large", req: dto.ConversationListRequest{Page: 2, Limit: 500}, wantPage: 2, wantLimit: 20},
		{name: "explicit", req: dto.ConversationListRequest{Page: 3, Limit: 5}, wantPage: 3, wantLimit: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.List(context.Background(), &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLimit, res.Limit)
			assert.Equal(t, int64(3), res.Total)
			assert.Len(t, res.Items, 3)
		})
	}
}

func TestConversationService_Show(t *testing.T) {
	factory := newFakeFactory()
	repo := factory.uow.conversations
	id := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &entity.Conversation{
		Id:         id,
		DeviceInfo: entity.DeviceInfo{Platform: "ios", IP: "10.0.0.1"},
	}))
	_, err := repo.AppendAndSave(context.Background(), id, entity.Message{Role: entity.MessageRoleUser, Content: "hi"}, nil)
	require.NoError(t, err)
	_, err = repo.AppendAndSave(context.Background(), id, entity.Message{Role: entity.MessageRoleAssistant, Content: "hello"},
		&entity.Analytics{Intent: "greeting", Category: "general", Sentiment: "positive"})
	require.NoError(t, err)

	svc := NewConversationService(factory)

	res, err := svc.Show(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, 0, res.Messages[0].Position)
	assert.Equal(t, "assistant", res.Messages[1].Role)
	assert.Equal(t, "ios", res.DeviceInfo.Platform)
	require.NotNil(t, res.Analytics)
	assert.Equal(t, "greeting", res.Analytics.Intent)

	_, err = svc.Show(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
