package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/projreg/internal/domain/event"
)

// DefaultBatchSize is the number of events per archive object.
const DefaultBatchSize = 500

// EventLister reads the notification log.
type EventLister interface {
	List(ctx context.Context, opts event.ListOptions) ([]event.Event, error)
}

// Result summarizes an export run.
type Result struct {
	Keys    []string `json:"keys"`
	Events  int      `json:"events"`
	LastSeq int64    `json:"last_seq"`
}

// Exporter copies log entries to a sink in sequence order.
type Exporter struct {
	events    EventLister
	sink      Sink
	logger    *slog.Logger
	Prefix    string
	BatchSize int
}

// NewExporter creates an exporter with the default batch size.
func NewExporter(events EventLister, sink Sink, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{events: events, sink: sink, logger: logger, BatchSize: DefaultBatchSize}
}

// Export writes events with seq > afterSeq, at most limit of them (0 means
// all), as one object per batch.
func (e *Exporter) Export(ctx context.Context, afterSeq int64, limit int) (Result, error) {
	if afterSeq < 0 || limit < 0 {
		return Result{}, fmt.Errorf("%w: negative cursor or limit", event.ErrInvalidInput)
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	res := Result{Keys: []string{}, LastSeq: afterSeq}
	for limit == 0 || res.Events < limit {
		n := batchSize
		if limit > 0 && limit-res.Events < n {
			n = limit - res.Events
		}
		batch, err := e.events.List(ctx, event.ListOptions{AfterSeq: res.LastSeq, Limit: n})
		if err != nil {
			return res, fmt.Errorf("reading events after %d: %w", res.LastSeq, err)
		}
		if len(batch) == 0 {
			break
		}

		body, err := encodeBatch(batch)
		if err != nil {
			return res, err
		}
		first, last := batch[0].Seq, batch[len(batch)-1].Seq
		key := BatchKey(e.Prefix, first, last)
		if err := e.sink.Put(ctx, key, body); err != nil {
			return res, fmt.Errorf("writing %s: %w", key, err)
		}
		e.logger.Info("archived events", "key", key, "from_seq", first, "to_seq", last)

		res.Keys = append(res.Keys, key)
		res.Events += len(batch)
		res.LastSeq = last
		if len(batch) < n {
			break
		}
	}
	return res, nil
}

// BatchKey names the object holding events first..last.
func BatchKey(prefix string, first, last int64) string {
	return fmt.Sprintf("%sevents/%020d-%020d.jsonl", prefix, first, last)
}

func encodeBatch(batch []event.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, evt := range batch {
		if err := enc.Encode(evt); err != nil {
			return nil, fmt.Errorf("encoding event %d: %w", evt.Seq, err)
		}
	}
	return buf.Bytes(), nil
}
