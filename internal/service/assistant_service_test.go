package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/pkg/llm"
	"shop-assistant-be/pkg/llm/gateway"
	"shop-assistant-be/pkg/rag/intent"
	"shop-assistant-be/pkg/rag/retriever"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	items []entity.RetrievedItem
	err   error
}

func (s *stubRetriever) Retrieve(ctx context.Context, message string) ([]entity.RetrievedItem, error) {
	return s.items, s.err
}

type stubClassifier struct {
	result intent.Classification
}

func (s *stubClassifier) Classify(ctx context.Context, message string) intent.Classification {
	return s.result
}

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

type recordingEvents struct {
	mu        sync.Mutex
	completed []uuid.UUID
	failed    []uuid.UUID
}

func (r *recordingEvents) PublishTurnCompleted(ctx context.Context, id uuid.UUID, intent string, productIds []uuid.UUID, converted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, id)
}

func (r *recordingEvents) PublishTurnFailed(ctx context.Context, id uuid.UUID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, id)
}

type assistantFixture struct {
	factory    *fakeFactory
	retriever  *stubRetriever
	classifier *stubClassifier
	generator  *stubGenerator
	events     *recordingEvents
	svc        IAssistantService
}

func newAssistantFixture() *assistantFixture {
	f := &assistantFixture{
		factory:    newFakeFactory(),
		retriever:  &stubRetriever{},
		classifier: &stubClassifier{result: intent.Neutral()},
		generator:  &stubGenerator{reply: "Happy to help!"},
		events:     &recordingEvents{},
	}
	f.svc = NewAssistantService(f.factory, f.retriever, f.classifier, f.generator, f.events,
		AssistantConfig{HistoryLimit: 2, StoreURL: "https://shop.example"}, nil)
	return f
}

func (f *assistantFixture) conversation(t *testing.T, id uuid.UUID) *entity.Conversation {
	c, err := f.factory.uow.conversations.FindById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestHandleTurn_NewConversation(t *testing.T) {
	f := newAssistantFixture()
	product := entity.RetrievedItem{ProductId: uuid.New(), Name: "Trail Runner", Price: 89.9, Category: "shoes", Slug: "trail-runner", KeyPoints: []string{}}
	f.retriever.items = []entity.RetrievedItem{product}
	f.classifier.result = intent.Classification{Intent: intent.IntentPurchase, Category: "shoes", Sentiment: "positive"}

	res, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{
		Message:    "  I want the trail runners  ",
		DeviceInfo: &dto.DeviceInfoRequest{Platform: "ios"},
	}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", res.Response)
	assert.NotEqual(t, uuid.Nil, res.ConversationId)

	c := f.conversation(t, res.ConversationId)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, entity.MessageRoleUser, c.Messages[0].Role)
	assert.Equal(t, "I want the trail runners", c.Messages[0].Content)
	assert.Equal(t, entity.MessageRoleAssistant, c.Messages[1].Role)
	assert.Equal(t, 1, c.Messages[1].Position)

	require.NotNil(t, c.Analytics)
	assert.Equal(t, intent.IntentPurchase, c.Analytics.Intent)
	assert.True(t, c.Analytics.Converted)
	assert.Equal(t, []uuid.UUID{product.ProductId}, c.Analytics.ProductContext)
	assert.Equal(t, "ios", c.DeviceInfo.Platform)
	assert.Equal(t, "10.0.0.1", c.DeviceInfo.IP)

	require.Len(t, f.generator.prompts, 1)
	assert.Contains(t, f.generator.prompts[0], "Trail Runner")
	assert.Contains(t, f.generator.prompts[0], "https://shop.example/products/trail-runner")
	assert.Equal(t, []uuid.UUID{res.ConversationId}, f.events.completed)
}

func TestHandleTurn_ContinuesConversationWithStoredHistory(t *testing.T) {
	f := newAssistantFixture()
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, &dto.ChatRequest{Message: "first question"}, "")
	require.NoError(t, err)
	f.generator.reply = "second answer"

	second, err := f.svc.HandleTurn(ctx, &dto.ChatRequest{Message: "second question", ConversationId: first.ConversationId.String()}, "")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationId, second.ConversationId)

	c := f.conversation(t, first.ConversationId)
	require.Len(t, c.Messages, 4)
	for i, m := range c.Messages {
		assert.Equal(t, i, m.Position)
	}

	// history limit 2: the previous user/assistant pair
	prompt := f.generator.prompts[1]
	assert.Contains(t, prompt, "Customer: first question")
	assert.Contains(t, prompt, "Assistant: Happy to help!")
}

func TestHandleTurn_CallerHistoryWinsAndIsTrimmed(t *testing.T) {
	f := newAssistantFixture()

	_, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{
		Message: "and in blue?",
		History: []dto.ChatHistoryMessage{
			{Role: "user", Content: "oldest turn"},
			{Role: "assistant", Content: "we have red"},
			{Role: "user", Content: "do you have jackets"},
		},
	}, "")
	require.NoError(t, err)

	prompt := f.generator.prompts[0]
	assert.NotContains(t, prompt, "oldest turn")
	assert.Contains(t, prompt, "Assistant: we have red")
	assert.Contains(t, prompt, "Customer: do you have jackets")
}

func TestHandleTurn_GenerationExhaustedKeepsUserMessage(t *testing.T) {
	f := newAssistantFixture()
	f.generator.err = gateway.ErrGenerationExhausted

	res, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "hello?"}, "")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
	assert.ErrorIs(t, err, gateway.ErrGenerationExhausted)

	require.Len(t, f.factory.uow.conversations.conversations, 1)
	for _, c := range f.factory.uow.conversations.conversations {
		require.Len(t, c.Messages, 1)
		assert.Equal(t, entity.MessageRoleUser, c.Messages[0].Role)
		assert.Nil(t, c.Analytics)
		assert.Equal(t, []uuid.UUID{c.Id}, f.events.failed)
	}
	assert.Empty(t, f.events.completed)
}

func TestHandleTurn_FatalProviderErrorIsUnavailable(t *testing.T) {
	f := newAssistantFixture()
	f.generator.err = llm.NewFatal("gemini", llm.KindSafety, errors.New("blocked"))

	_, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "something edgy"}, "")
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
	assert.True(t, llm.IsFatal(err))
}

func TestHandleTurn_RetrievalFailureDegrades(t *testing.T) {
	f := newAssistantFixture()
	f.retriever.err = retriever.ErrRetrievalUnavailable

	res, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "gift ideas?"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", res.Response)
	assert.Contains(t, f.generator.prompts[0], "No specific products matched")

	c := f.conversation(t, res.ConversationId)
	assert.Equal(t, intent.IntentUndetermined, c.Analytics.Intent)
	assert.Empty(t, c.Analytics.ProductContext)
}

func TestHandleTurn_AssistantPersistFailureStillReplies(t *testing.T) {
	f := newAssistantFixture()
	f.factory.uow.conversations.failAssistant = true

	res, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", res.Response)

	c := f.conversation(t, res.ConversationId)
	assert.Len(t, c.Messages, 1)
}

func TestHandleTurn_ConvertedIsSticky(t *testing.T) {
	f := newAssistantFixture()
	ctx := context.Background()

	f.classifier.result = intent.Classification{Intent: intent.IntentPurchase, Category: "general", Sentiment: "neutral"}
	first, err := f.svc.HandleTurn(ctx, &dto.ChatRequest{Message: "buy it"}, "")
	require.NoError(t, err)

	f.classifier.result = intent.Classification{Intent: intent.IntentSupport, Category: "general", Sentiment: "neutral"}
	_, err = f.svc.HandleTurn(ctx, &dto.ChatRequest{Message: "when will it ship?", ConversationId: first.ConversationId.String()}, "")
	require.NoError(t, err)

	c := f.conversation(t, first.ConversationId)
	assert.Equal(t, intent.IntentSupport, c.Analytics.Intent)
	assert.True(t, c.Analytics.Converted)
}

func TestHandleTurn_Errors(t *testing.T) {
	f := newAssistantFixture()

	_, err := f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "   "}, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.svc.HandleTurn(context.Background(), &dto.ChatRequest{Message: "hi", ConversationId: uuid.NewString()}, "")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	assert.Empty(t, f.generator.prompts)
	assert.Empty(t, f.factory.uow.conversations.conversations)
}

func TestHandleTurn_ConcurrentTurnsKeepPositionsDense(t *testing.T) {
	f := newAssistantFixture()
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, &dto.ChatRequest{Message: "start"}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.HandleTurn(ctx, &dto.ChatRequest{
				Message:        strings.Repeat("x", i+1),
				ConversationId: first.ConversationId.String(),
			}, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c := f.conversation(t, first.ConversationId)
	require.Len(t, c.Messages, 22)
	for i, m := range c.Messages {
		assert.Equal(t, i, m.Position)
	}
}
