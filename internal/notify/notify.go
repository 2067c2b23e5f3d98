package notify

import (
	"context"
	"fmt"

	"github.com/dev-tams/trashkit/internal/config"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Event is the run summary posted after a sweep.
type Event struct {
	Mode     string `json:"mode"`
	Status   string `json:"status"`
	Scanned  int    `json:"scanned"`
	Deleted  int    `json:"deleted"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Dispatcher routes a run summary to the configured notifier, filtered on
// outcome status. A nil Dispatcher silently discards events.
type Dispatcher struct {
	onSuccess bool
	onFailure bool
	notifier  Notifier
}

func NewDispatcher(cfg *config.WebhookConfig) (*Dispatcher, error) {
	if cfg == nil {
		return nil, nil
	}

	nf, err := NewWebhook(cfg.URL, cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	d := &Dispatcher{notifier: nf}
	if len(cfg.On) == 0 {
		d.onSuccess = true
		d.onFailure = true
		return d, nil
	}
	for _, on := range cfg.On {
		switch on {
		case StatusSuccess:
			d.onSuccess = true
		case StatusFailure:
			d.onFailure = true
		default:
			return nil, fmt.Errorf("unsupported webhook trigger %q", on)
		}
	}
	return d, nil
}

func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	switch event.Status {
	case StatusSuccess:
		if !d.onSuccess {
			return nil
		}
	case StatusFailure:
		if !d.onFailure {
			return nil
		}
	default:
		return nil
	}
	return d.notifier.Notify(ctx, event)
}
