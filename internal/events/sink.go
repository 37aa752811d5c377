// Package events delivers committed sale events to logs, files and metrics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"walienPool/internal/model"
)

// Sink receives events after the operation that produced them has committed.
type Sink interface {
	Emit(ctx context.Context, ev model.Event) error
}

// Fanout delivers each event to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRecord wraps ev in the JSON envelope written to event logs.
func NewRecord(ev model.Event, seq uint64, at time.Time) (model.EventRecord, error) {
	decoded, err := json.Marshal(ev)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	return model.EventRecord{
		ID:        uuid.NewString(),
		Seq:       seq,
		EventName: ev.EventName(),
		Timestamp: at.Unix(),
		Decoded:   decoded,
	}, nil
}
