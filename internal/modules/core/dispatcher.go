package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mimic-fi/v3-subgraph/internal/metrics"
)

// Handler applies one decoded event on behalf of module M.
type Handler[M any] func(ctx context.Context, module M, event *ParsedEvent) error

// Dispatcher decodes events with the ABIs declared in a manifest and hands
// each one to the handler the manifest names for it.
type Dispatcher[M any] struct {
	module   string
	parser   *EventParser
	handlers map[common.Hash]Handler[M]
	names    map[common.Hash]string
	metrics  *metrics.Metrics
}

// NewDispatcher binds every manifest event handler to an entry of handlers.
func NewDispatcher[M any](manifest *Manifest, handlers map[string]Handler[M], m *metrics.Metrics) (*Dispatcher[M], error) {
	d := &Dispatcher[M]{
		module:   manifest.Name,
		parser:   NewEventParser(),
		handlers: make(map[common.Hash]Handler[M]),
		names:    make(map[common.Hash]string),
		metrics:  m,
	}

	for _, ds := range manifest.AllSources() {
		for _, eh := range ds.Mapping.EventHandlers {
			event, err := ParseEventSignature(eh.Event)
			if err != nil {
				return nil, fmt.Errorf("data source %s: %w", ds.Name, err)
			}
			handler, ok := handlers[eh.Handler]
			if !ok {
				return nil, fmt.Errorf("data source %s: no handler named %s", ds.Name, eh.Handler)
			}
			if prev, ok := d.names[event.ID]; ok && prev != eh.Handler {
				return nil, fmt.Errorf("data source %s: %s is bound to both %s and %s", ds.Name, event.Sig, prev, eh.Handler)
			}

			d.parser.AddEvent(event)
			d.handlers[event.ID] = handler
			d.names[event.ID] = eh.Handler
		}
	}
	return d, nil
}

// Topics returns the topic0 of every bound event.
func (d *Dispatcher[M]) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.handlers))
	for topic := range d.handlers {
		out = append(out, topic)
	}
	return out
}

// Dispatch decodes raw and runs its handler. Events the manifest does not
// bind are ignored.
func (d *Dispatcher[M]) Dispatch(ctx context.Context, module M, raw *RawEvent) error {
	event, err := d.parser.ParseEvent(raw)
	if err != nil {
		var unknown ErrUnknownEvent
		if errors.As(err, &unknown) {
			return nil
		}
		d.metrics.HandlerFailed(d.module, "decode")
		return err
	}

	timer := d.metrics.HandlerTimer(d.module)
	defer timer.ObserveDuration()

	handler := d.handlers[event.Log.Topics[0]]
	if err := handler(ctx, module, event); err != nil {
		d.metrics.HandlerFailed(d.module, event.EventName)
		return fmt.Errorf("%s handler failed for %s: %w", event.EventName, event.ID(), err)
	}
	d.metrics.EventProcessed(d.module, event.EventName)
	return nil
}
