package alerts

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

// Dispatcher relays inbound alert batches to a webhook.
type Dispatcher struct {
	poster Poster
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher that delivers through poster.
func NewDispatcher(poster Poster, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		poster: poster,
		logger: logger,
	}
}

// Handle delivers every record of ev and reports the aggregate outcome.
// It returns ErrMissingWebhookURL without sending anything when no
// destination is set, nil when every record was acknowledged, and the first
// failure otherwise.
func (d *Dispatcher) Handle(ctx context.Context, ev *model.Event, settings Settings) error {
	delivery, err := d.Begin(ctx, ev, settings)
	if err != nil {
		return err
	}
	return delivery.Wait()
}

// Begin validates settings and starts one send per record without waiting
// for them. Configuration errors are returned here; delivery errors are
// reported by Delivery.Wait.
func (d *Dispatcher) Begin(ctx context.Context, ev *model.Event, settings Settings) (*Delivery, error) {
	if settings.WebhookURL == "" {
		return nil, ErrMissingWebhookURL
	}

	var records []model.Record
	if ev != nil {
		records = ev.Records
	}

	invocationID := uuid.New().String()
	logger := d.logger.With("invocation_id", invocationID)
	logger.Info("event received", "event", serialize(ev), "records", len(records))

	delivery := &Delivery{
		results: make(chan error, len(records)),
		pending: len(records),
	}

	for i, record := range records {
		payload := BuildPayload(record, settings.MessagePrefix)
		go func() {
			err := d.poster.Post(ctx, settings.WebhookURL, payload)
			if err != nil {
				logger.Error("send alert failed", "record", i, "error", err)
			} else {
				logger.Debug("alert delivered", "record", i)
			}
			delivery.results <- err
		}()
	}

	return delivery, nil
}

// Delivery is an in-flight batch started by Dispatcher.Begin.
type Delivery struct {
	results chan error
	pending int

	once sync.Once
	err  error
}

// Wait blocks until every send succeeded or the first one failed. Sends
// still in flight after a failure are left to finish on their own.
func (d *Delivery) Wait() error {
	d.once.Do(func() {
		for range d.pending {
			if err := <-d.results; err != nil {
				d.err = err
				return
			}
		}
	})
	return d.err
}

func serialize(ev *model.Event) string {
	b, err := json.Marshal(ev)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
