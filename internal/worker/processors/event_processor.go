package processors

import (
	"context"
	"fmt"

	"backsync/internal/events"
	"backsync/internal/logger"
	"backsync/internal/models"
	"backsync/internal/sync"
)

// EventProcessor routes storefront lifecycle events to the sync
// dispatcher. Sync failures are already absorbed by the dispatcher; an
// error here only means the event itself was unusable.
type EventProcessor struct {
	dispatcher *sync.Dispatcher
	logger     *logger.Logger
}

func NewEventProcessor(dispatcher *sync.Dispatcher, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	ep.logger.Debug("Processing event %s for %s", event.Type, event.EntityID)

	switch event.Type {
	case events.TypeProductUpdated:
		ep.dispatcher.SyncProduct(ctx, event.EntityID)
	case events.TypeOrderCompleted:
		ep.dispatcher.SyncPurchase(ctx, event.EntityID)
	case events.TypeUserRegistered:
		ep.dispatcher.SyncUserRegistration(ctx, event.EntityID)
	case events.TypeUserUpdated:
		ep.dispatcher.SyncUserUpdate(ctx, event.EntityID, models.UserSnapshot{
			UserID:   event.EntityID,
			Username: event.Data["previous_username"],
			Email:    event.Data["previous_email"],
		})
	case events.TypeUserDeleted:
		ep.dispatcher.SyncUserDeletion(ctx, models.UserSnapshot{
			UserID:   event.EntityID,
			Username: event.Data["username"],
			Email:    event.Data["email"],
		})
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	return nil
}
