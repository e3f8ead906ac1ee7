package service

import (
	"context"
	"errors"
	"fmt"

	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/events"
	pktNats "shop-assistant-be/pkg/nats"

	"github.com/google/uuid"
)

const (
	productUpdatedSubject = "events.PRODUCT_UPDATED"
	productUpdatedDurable = "shop-assistant-reindex"
)

type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// CatalogEventService turns PRODUCT_UPDATED events published by the catalog
// into re-index requests.
type CatalogEventService struct {
	subscriber EventSubscriber
	catalog    ICatalogService
	logger     logger.ILogger
}

func NewCatalogEventService(sub EventSubscriber, catalog ICatalogService, log logger.ILogger) *CatalogEventService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CatalogEventService{
		subscriber: sub,
		catalog:    catalog,
		logger:     log,
	}
}

func (s *CatalogEventService) Start() {
	if err := s.subscriber.Subscribe(productUpdatedSubject, productUpdatedDurable, s.handleEvent); err != nil {
		s.logger.Error("CatalogEventService", "Failed to start catalog subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("CatalogEventService", "Listening to "+productUpdatedSubject, nil)
}

func (s *CatalogEventService) handleEvent(ctx context.Context, event events.Event) error {
	raw, _ := event.Payload()["product_id"].(string)
	productId, err := uuid.Parse(raw)
	if err != nil {
		// redelivery cannot fix a bad payload
		s.logger.Warn("CatalogEventService", "PRODUCT_UPDATED without a valid product_id", map[string]interface{}{"product_id": raw})
		return nil
	}

	if _, err := s.catalog.RequestReindex(ctx, productId); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("failed to queue product %s: %w", productId, err)
	}
	return nil
}
