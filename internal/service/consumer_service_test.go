package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls    atomic.Int32
	failures int32
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	n := e.calls.Add(1)
	if n <= e.failures {
		return nil, errors.New("embedding backend down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func newIndexMessage(t *testing.T, id uuid.UUID) *message.Message {
	payload, err := json.Marshal(dto.PublishProductIndexMessage{ProductId: id})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func newTestConsumer(factory *fakeFactory, embedder *countingEmbedder, corpus *countingInvalidator) *consumerService {
	cs := NewConsumerService(nil, "PRODUCT_INDEX", factory, embedder, corpus, logger.NewNopLogger()).(*consumerService)
	cs.retryDelay = time.Millisecond
	return cs
}

func TestConsumer_IndexesProduct(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Mug", Price: 12, Category: "kitchen", KeyPoints: []string{"ceramic"}, IsActive: true}
	factory.uow.products.products[product.Id] = product
	embedder := &countingEmbedder{}
	corpus := &countingInvalidator{}
	cs := newTestConsumer(factory, embedder, corpus)

	cs.processMessage(context.Background(), newIndexMessage(t, product.Id))

	stored := factory.uow.embeddings.byProduct[product.Id]
	require.NotNil(t, stored)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, stored.EmbeddingValue)
	assert.Contains(t, stored.Document, "Product: Mug")
	assert.Contains(t, stored.Document, "- ceramic")
	assert.Equal(t, int32(1), corpus.calls.Load())

	// unchanged text is not re-embedded
	cs.processMessage(context.Background(), newIndexMessage(t, product.Id))
	assert.Equal(t, int32(1), embedder.calls.Load())
	assert.Equal(t, 1, factory.uow.embeddings.replaced)
}

func TestConsumer_RetriesTransientFailures(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Lamp", IsActive: true}
	factory.uow.products.products[product.Id] = product
	embedder := &countingEmbedder{failures: 2}
	cs := newTestConsumer(factory, embedder, &countingInvalidator{})

	cs.processMessage(context.Background(), newIndexMessage(t, product.Id))

	assert.Equal(t, int32(3), embedder.calls.Load())
	assert.NotNil(t, factory.uow.embeddings.byProduct[product.Id])
}

func TestConsumer_SkipsMissingAndInactive(t *testing.T) {
	factory := newFakeFactory()
	inactive := &entity.Product{Id: uuid.New(), Name: "Old", IsActive: false}
	factory.uow.products.products[inactive.Id] = inactive
	embedder := &countingEmbedder{}
	cs := newTestConsumer(factory, embedder, &countingInvalidator{})

	cs.processMessage(context.Background(), newIndexMessage(t, inactive.Id))
	cs.processMessage(context.Background(), newIndexMessage(t, uuid.New()))
	cs.processMessage(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("not json")))

	assert.Equal(t, int32(0), embedder.calls.Load())
	assert.Empty(t, factory.uow.embeddings.byProduct)
}

type editingEmbedder struct {
	product *entity.Product
}

func (e *editingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.product.Description = "edited while embedding"
	return []float32{1, 0, 0}, nil
}

func TestConsumer_DropsVectorWhenProductChangedMidway(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Tent", IsActive: true}
	factory.uow.products.products[product.Id] = product
	corpus := &countingInvalidator{}
	cs := NewConsumerService(nil, "PRODUCT_INDEX", factory, &editingEmbedder{product: product}, corpus, logger.NewNopLogger()).(*consumerService)

	cs.processMessage(context.Background(), newIndexMessage(t, product.Id))

	assert.Nil(t, factory.uow.embeddings.byProduct[product.Id])
	assert.Equal(t, int32(0), corpus.calls.Load())
}

func TestConsumer_ConsumesFromPubSub(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Kettle", IsActive: true}
	factory.uow.products.products[product.Id] = product
	corpus := &countingInvalidator{}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := NewConsumerService(pubSub, "PRODUCT_INDEX", factory, &countingEmbedder{}, corpus, nil)
	require.NoError(t, cs.Consume(ctx))

	publisher := NewPublisherService("PRODUCT_INDEX", pubSub)
	payload, _ := json.Marshal(dto.PublishProductIndexMessage{ProductId: product.Id})
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool { return corpus.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestBuildProductDocument(t *testing.T) {
	doc := BuildProductDocument(&entity.Product{Name: "Tent", Price: 249.5, Category: "outdoor", Description: "Two person tent."})
	assert.Equal(t, "Product: Tent\nCategory: outdoor\nPrice: 249.50\n\nTwo person tent.\n", doc)
}

func TestCatalogService_RequestReindex(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Tent", IsActive: true}
	factory.uow.products.products[product.Id] = product
	publisher := &capturingPublisher{}
	svc := NewCatalogService(factory, publisher)

	res, err := svc.RequestReindex(context.Background(), product.Id)
	require.NoError(t, err)
	assert.True(t, res.Queued)
	require.Len(t, publisher.payloads, 1)

	var msg dto.PublishProductIndexMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &msg))
	assert.Equal(t, product.Id, msg.ProductId)

	_, err = svc.RequestReindex(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogEventService_HandleEvent(t *testing.T) {
	factory := newFakeFactory()
	product := &entity.Product{Id: uuid.New(), Name: "Tent", IsActive: true}
	factory.uow.products.products[product.Id] = product
	publisher := &capturingPublisher{}
	svc := NewCatalogEventService(nil, NewCatalogService(factory, publisher), nil)

	evt := func(id string) events.Event {
		return events.New("PRODUCT_UPDATED", map[string]interface{}{"product_id": id})
	}

	require.NoError(t, svc.handleEvent(context.Background(), evt(product.Id.String())))
	require.NoError(t, svc.handleEvent(context.Background(), evt("garbage")))
	require.NoError(t, svc.handleEvent(context.Background(), evt(uuid.NewString())))
	assert.Len(t, publisher.payloads, 1)

	publisher.err = errors.New("queue closed")
	assert.Error(t, svc.handleEvent(context.Background(), evt(product.Id.String())))
}

type capturingPublisher struct {
	payloads [][]byte
	err      error
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}
