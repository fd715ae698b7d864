package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stroppy-io/gatedfetch/internal/core/defaults"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultURL     = "https://jsonplaceholder.typicode.com/todos/28"
	DefaultTimeout = 30 * time.Second

	RequestIdHeader = "X-Request-Id"

	tracerName = "github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	spanName   = "gatedfetch.fetch"
)

// ErrNotValidated rejects a fetch that was not preceded by a successful Validate.
var ErrNotValidated = &outcome.ValidationError{Message: "age was not validated"}

type Config struct {
	URL     string        `mapstructure:"url" default:"https://jsonplaceholder.typicode.com/todos/28" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
}

func DefaultConfig() *Config {
	return &Config{
		URL:     DefaultURL,
		Timeout: DefaultTimeout,
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("fetch url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid fetch url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("fetch url must be http or https, got %q", c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Record is the decoded response. Data is the JSON body as decoded into any;
// it is never inspected or cached here.
type Record struct {
	StatusCode int `json:"status_code" mapstructure:"status_code"`
	Data       any `json:"data" mapstructure:"data"`
}

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Orchestrator)

func WithClient(client Doer) Option {
	return func(o *Orchestrator) {
		o.client = client
	}
}

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// Orchestrator validates the configured age and, only when that succeeds,
// fetches and decodes the configured URL. It holds no per-run state and may
// be shared between goroutines.
type Orchestrator struct {
	validator *agegate.Validator
	age       int
	cfg       Config
	client    Doer
	observer  Observer
	tracer    trace.Tracer
	now       func() time.Time
}

func New(validator *agegate.Validator, age int, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator: validator,
		age:       age,
		cfg:       cfg,
		client:    &http.Client{},
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	o.cfg.URL = defaults.StringOrDefault(cfg.URL, DefaultURL)
	o.cfg.Timeout = defaults.DurationOrDefault(cfg.Timeout, DefaultTimeout)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) newTracker(runId ids.RunId, from State) *tracker {
	return &tracker{
		runId:    runId,
		state:    from,
		started:  o.now(),
		now:      o.now,
		observer: o.observer,
	}
}

// logCtx names the run's logger and tags it with the run id. Fields the
// caller attached with logger.CtxWithAttrs are kept.
func (o *Orchestrator) logCtx(ctx context.Context, runId ids.RunId) context.Context {
	return logger.CtxWithAttrs(
		logger.WrapInCtx(ctx, logger.Named("fetch")),
		zap.Stringer("run_id", runId),
	)
}

// Run executes one validate-then-fetch pass under a fresh run id.
func (o *Orchestrator) Run(ctx context.Context) outcome.Outcome[Record] {
	return o.RunWithId(ctx, ids.NewRunId())
}

func (o *Orchestrator) RunWithId(ctx context.Context, runId ids.RunId) outcome.Outcome[Record] {
	return o.Fetch(ctx, runId, o.Validate(ctx, runId))
}

// Validate is the first step of a run. A failure is returned as produced by
// the validator.
func (o *Orchestrator) Validate(ctx context.Context, runId ids.RunId) outcome.Outcome[string] {
	ctx = o.logCtx(ctx, runId)
	tr := o.newTracker(runId, StateStart)
	tr.move(ctx, StateValidating)

	res := o.validator.Validate(o.age)
	if !res.IsOk() {
		logger.NewFromCtx(ctx).Warn("age validation failed", zap.Int("age", o.age), zap.Error(res.Err))
		tr.fail(ctx, res.Kind, res.Err)
		return res
	}
	logger.NewFromCtx(ctx).Debug("age validation successful", zap.String("result", res.Value))
	return res
}

// Fetch is the second step of a run. validation is the result of Validate:
// a failure is handed back untouched and an ok result without the
// validator's message fails with ErrNotValidated. No request is sent in
// either case.
func (o *Orchestrator) Fetch(ctx context.Context, runId ids.RunId, validation outcome.Outcome[string]) outcome.Outcome[Record] {
	if !validation.IsOk() {
		return outcome.Fail[Record](validation)
	}
	ctx = o.logCtx(ctx, runId)
	if validation.Value == "" {
		logger.NewFromCtx(ctx).Warn("fetch refused", zap.Error(ErrNotValidated))
		o.newTracker(runId, StateStart).fail(ctx, outcome.KindValidation, ErrNotValidated)
		return outcome.Invalid[Record](ErrNotValidated)
	}

	tr := o.newTracker(runId, StateValidating)
	tr.move(ctx, StateFetching)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()
	ctx, span := o.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("run_id", runId.String()),
		attribute.String("http.url", o.cfg.URL),
	))
	defer span.End()

	failed := func(op string, err error) outcome.Outcome[Record] {
		terr := &outcome.TransportError{Op: op, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
		logger.NewFromCtx(ctx).Warn("fetch failed", zap.String("op", op), zap.Error(err))
		tr.fail(ctx, outcome.KindTransport, terr)
		return outcome.Transport[Record](terr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.URL, nil)
	if err != nil {
		return failed(outcome.OpFetch, err)
	}
	requestId := ids.NewRequestId()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIdHeader, requestId)
	logger.SetCtxFields(ctx, zap.String("request_id", requestId))

	resp, err := o.client.Do(req)
	if err != nil {
		return failed(outcome.OpFetch, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.SetCtxFields(ctx, zap.Int("status", resp.StatusCode))

	tr.move(ctx, StateDecoding)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(outcome.OpRead, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return failed(outcome.OpDecode, err)
	}

	tr.move(ctx, StateDone)
	logger.NewFromCtx(ctx).Debug("record fetched", zap.Int("bytes", len(raw)))
	return outcome.Ok(Record{StatusCode: resp.StatusCode, Data: data})
}
