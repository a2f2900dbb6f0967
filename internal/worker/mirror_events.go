package worker

import (
	"context"

	"yogastudio/internal/domain"
	"yogastudio/internal/events"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

// RecordLoader resolves a booking into its mirrored row.
type RecordLoader interface {
	GetBookingRecord(ctx context.Context, bookingID int64) (*models.BookingRecord, error)
}

// SubscribeMirror turns booking events into mirror tasks. Failures are logged only.
func SubscribeMirror(ctx context.Context, bus *events.EventBus, loader RecordLoader, queue domain.MirrorQueue, logger *zerolog.Logger) {
	if bus == nil || queue == nil {
		return
	}

	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		var p events.BookingPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		record, err := loader.GetBookingRecord(ctx, p.BookingID)
		if err != nil {
			return err
		}
		if record == nil {
			logger.Warn().Int64("booking_id", p.BookingID).Msg("booking vanished before mirroring")
			return nil
		}
		return queue.EnqueueTask(ctx, TaskUpsert, p.BookingID, record)
	})

	bus.Subscribe(events.EventBookingCanceled, func(ev *events.Event) error {
		var p events.BookingPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		return queue.EnqueueTask(ctx, TaskDelete, p.BookingID, nil)
	})
}
