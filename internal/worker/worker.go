package worker

import (
	"context"
	"log"

	"laundry-service/internal/broker"
	"laundry-service/internal/service"
)

// CommissionWorker consumes OrderCompleted events and records affiliate
// commissions in the background.
type CommissionWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewCommissionWorker creates a new commission worker
func NewCommissionWorker(
	consumer *broker.Consumer,
	commissionService *service.CommissionService,
) *CommissionWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(commissionService.HandleOrderCompleted)

	return &CommissionWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *CommissionWorker) Start(ctx context.Context) error {
	log.Println("Starting commission worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CommissionWorker) Stop() error {
	log.Println("Stopping commission worker...")
	return w.consumer.Close()
}
