package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/internal/repository/specification"
	"shop-assistant-be/internal/repository/unitofwork"
	"shop-assistant-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
)

const maxIndexAttempts = 3

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// CorpusInvalidator drops any cached view of the catalog vectors.
type CorpusInvalidator interface {
	Invalidate()
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	corpus            CorpusInvalidator
	retryDelay        time.Duration
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	corpus CorpusInvalidator,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		corpus:            corpus,
		retryDelay:        time.Second,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. gochannel redelivers a nacked message
// immediately, so transient failures are retried here with a delay instead.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishProductIndexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("INDEXER", "Invalid product index message", map[string]interface{}{"error": err.Error()})
		return
	}

	for attempt := 1; attempt <= maxIndexAttempts; attempt++ {
		err := cs.indexProduct(ctx, payload)
		if err == nil {
			return
		}

		cs.logger.Warn("INDEXER", "Product indexing failed", map[string]interface{}{
			"product_id": payload.ProductId,
			"attempt":    attempt,
			"error":      err.Error(),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * cs.retryDelay):
		}
	}

	cs.logger.Error("INDEXER", "Giving up on product indexing", map[string]interface{}{"product_id": payload.ProductId})
}

func (cs *consumerService) indexProduct(ctx context.Context, payload dto.PublishProductIndexMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	product, err := uow.ProductRepository().FindOne(ctx, specification.ByID{ID: payload.ProductId})
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		cs.logger.Info("INDEXER", "Product missing or inactive, skipping", map[string]interface{}{"product_id": payload.ProductId})
		return nil
	}

	document := BuildProductDocument(product)

	existing, err := uow.ProductEmbeddingRepository().FindOne(ctx, specification.ByProductID{ProductID: product.Id})
	if err != nil {
		return fmt.Errorf("failed to get current embedding: %w", err)
	}
	if existing != nil && existing.Document == document {
		cs.logger.Debug("INDEXER", "Product text unchanged, keeping vector", map[string]interface{}{"product_id": product.Id})
		return nil
	}

	values, err := cs.embeddingProvider.Embed(ctx, document, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("failed to embed product: %w", err)
	}

	stale := false
	err = uow.Transaction(ctx, func(tx unitofwork.UnitOfWork) error {
		// the product may have changed while the embedding call was in flight
		current, err := tx.ProductRepository().FindOne(ctx, specification.ByID{ID: product.Id})
		if err != nil {
			return err
		}
		if current == nil || !current.IsActive || BuildProductDocument(current) != document {
			stale = true
			return nil
		}
		return tx.ProductEmbeddingRepository().ReplaceForProduct(ctx, &entity.ProductEmbedding{
			ProductId:      product.Id,
			Document:       document,
			EmbeddingValue: values,
			CreatedAt:      time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	if stale {
		cs.logger.Info("INDEXER", "Product changed during indexing, dropping vector", map[string]interface{}{"product_id": product.Id})
		return nil
	}

	if cs.corpus != nil {
		cs.corpus.Invalidate()
	}

	cs.logger.Info("INDEXER", "Product indexed", map[string]interface{}{
		"product_id": product.Id,
		"dimensions": len(values),
	})
	return nil
}

// BuildProductDocument is the text a product's vector is computed from.
func BuildProductDocument(p *entity.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Product: %s\n", p.Name))
	if p.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", p.Category))
	}
	sb.WriteString(fmt.Sprintf("Price: %.2f\n", p.Price))
	if p.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", p.Description))
	}
	if len(p.KeyPoints) > 0 {
		sb.WriteString("\nKey points:\n")
		for _, kp := range p.KeyPoints {
			sb.WriteString(fmt.Sprintf("- %s\n", kp))
		}
	}
	return sb.String()
}
