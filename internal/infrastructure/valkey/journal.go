package valkey

import (
	"context"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/stroppy-io/gatedfetch/internal/core/defaults"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

const (
	fieldRunId   = "run_id"
	fieldFrom    = "from"
	fieldTo      = "to"
	fieldKind    = "kind"
	fieldError   = "error"
	fieldAt      = "at"
	fieldElapsed = "elapsed_ms"
)

// Entry is one state transition as stored in the journal stream.
type Entry struct {
	Id      string
	RunId   ids.RunId
	From    string
	To      string
	Kind    string
	Error   string
	At      time.Time
	Elapsed time.Duration
}

// Journal appends run state transitions to a capped valkey stream.
// Write failures are logged and never affect the run.
type Journal struct {
	client valkey.Client
	stream string
	maxLen int64
	log    *zap.Logger
}

var _ fetch.Observer = (*Journal)(nil)

func NewJournal(client valkey.Client, cfg *Config) *Journal {
	return &Journal{
		client: client,
		stream: defaults.StringOrDefault(cfg.Stream, DefaultStream),
		maxLen: lo.Ternary(cfg.MaxLen > 0, cfg.MaxLen, DefaultMaxLen),
		log:    logger.Named("journal"),
	}
}

func entryFields(t fetch.Transition) [][2]string {
	fields := [][2]string{
		{fieldRunId, t.RunId.String()},
		{fieldFrom, t.From.Label()},
		{fieldTo, t.To.Label()},
		{fieldAt, t.At.UTC().Format(time.RFC3339Nano)},
		{fieldElapsed, strconv.FormatInt(t.Elapsed.Milliseconds(), 10)},
	}
	if t.To == fetch.StateFailed {
		fields = append(fields, [2]string{fieldKind, t.Kind.String()})
		if t.Err != nil {
			fields = append(fields, [2]string{fieldError, t.Err.Error()})
		}
	}
	return fields
}

func parseEntry(id string, values map[string]string) Entry {
	entry := Entry{
		Id:    id,
		RunId: ids.RunId(values[fieldRunId]),
		From:  values[fieldFrom],
		To:    values[fieldTo],
		Kind:  values[fieldKind],
		Error: values[fieldError],
	}
	if at, err := time.Parse(time.RFC3339Nano, values[fieldAt]); err == nil {
		entry.At = at
	}
	if ms, err := strconv.ParseInt(values[fieldElapsed], 10, 64); err == nil {
		entry.Elapsed = time.Duration(ms) * time.Millisecond
	}
	return entry
}

func (j *Journal) Observe(ctx context.Context, t fetch.Transition) {
	fv := j.client.B().Xadd().
		Key(j.stream).
		Maxlen().Almost().Threshold(strconv.FormatInt(j.maxLen, 10)).
		Id(autoId).
		FieldValue()
	for _, kv := range entryFields(t) {
		fv = fv.FieldValue(kv[0], kv[1])
	}
	// the run context may already be cancelled when the failure is reported
	err := j.client.Do(context.WithoutCancel(ctx), fv.Build()).Error()
	if err != nil {
		j.log.Warn("failed to journal transition",
			zap.Stringer("run_id", t.RunId),
			zap.String("to", t.To.Label()),
			zap.Error(err),
		)
	}
}

// History returns the journaled transitions of runId in insertion order.
// An empty runId returns every entry still kept in the stream.
func (j *Journal) History(ctx context.Context, runId ids.RunId) ([]Entry, error) {
	raw, err := j.client.Do(ctx, j.client.B().Xrange().Key(j.stream).Start(streamStart).End(streamEnd).Build()).AsXRange()
	if err != nil {
		return nil, err
	}
	entries := lo.Map(raw, func(e valkey.XRangeEntry, _ int) Entry {
		return parseEntry(e.ID, e.FieldValues)
	})
	if runId == "" {
		return entries, nil
	}
	return lo.Filter(entries, func(e Entry, _ int) bool {
		return e.RunId == runId
	}), nil
}
