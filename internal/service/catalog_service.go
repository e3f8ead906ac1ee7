package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shop-assistant-be/internal/dto"
	"shop-assistant-be/internal/repository/specification"
	"shop-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var ErrProductNotFound = errors.New("product not found")

type ICatalogService interface {
	// RequestReindex queues a product for re-embedding.
	RequestReindex(ctx context.Context, productId uuid.UUID) (*dto.ReindexProductResponse, error)
}

type catalogService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewCatalogService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService) ICatalogService {
	return &catalogService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (c *catalogService) RequestReindex(ctx context.Context, productId uuid.UUID) (*dto.ReindexProductResponse, error) {
	product, err := c.uowFactory.NewUnitOfWork(ctx).ProductRepository().FindOne(ctx, specification.ByID{ID: productId})
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	payload, err := json.Marshal(dto.PublishProductIndexMessage{ProductId: productId})
	if err != nil {
		return nil, err
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to queue product: %w", err)
	}

	return &dto.ReindexProductResponse{ProductId: productId, Queued: true}, nil
}
