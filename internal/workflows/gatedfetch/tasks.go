package gatedfetch

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/stroppy-io/gatedfetch/internal/core/defaults"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
	"go.uber.org/zap"
)

// Input of one age-gated fetch run. Unset fields fall back to the worker config.
type Input struct {
	RunId string `json:"run_id,omitempty" mapstructure:"run_id"`
	Age   *int   `json:"age,omitempty" mapstructure:"age"`
	URL   string `json:"url,omitempty" mapstructure:"url"`
}

type ValidateAgeOutput struct {
	RunId   string `json:"run_id" mapstructure:"run_id"`
	Age     int    `json:"age" mapstructure:"age"`
	Message string `json:"message" mapstructure:"message"`
}

type FetchRecordOutput struct {
	RunId  string       `json:"run_id" mapstructure:"run_id"`
	Record fetch.Record `json:"record" mapstructure:"record"`
}

type FailureHandlerOutput struct {
	FailureHandled bool   `json:"failure_handled"`
	ErrorDetails   string `json:"error_details"`
}

type Deps struct {
	Gate     agegate.Config
	Fetch    fetch.Config
	Observer fetch.Observer
	// Client overrides the HTTP client used for the fetch step.
	Client fetch.Doer
}

func (d *Deps) orchestrator(input *Input) *fetch.Orchestrator {
	opts := []fetch.Option{}
	if d.Observer != nil {
		opts = append(opts, fetch.WithObserver(d.Observer))
	}
	if d.Client != nil {
		opts = append(opts, fetch.WithClient(d.Client))
	}
	return fetch.New(
		agegate.NewValidator(d.Gate.Threshold),
		defaults.IntPtrOrDefault(input.Age, d.Gate.Age),
		fetch.Config{
			URL:     defaults.StringOrDefault(input.URL, d.Fetch.URL),
			Timeout: d.Fetch.Timeout,
		},
		opts...,
	)
}

// ValidateAge is the body of the validate-age task. A rejected age fails the
// task with the validator's error so hatchet never schedules fetch-record.
func (d *Deps) ValidateAge(ctx context.Context, input *Input) (*ValidateAgeOutput, error) {
	runId := ids.ParseRunId(input.RunId)
	age := defaults.IntPtrOrDefault(input.Age, d.Gate.Age)
	res := d.orchestrator(input).Validate(logger.CtxWithAttrs(ctx, zap.String("task", ValidateAgeTaskName)), runId)
	message, err := res.Unpack()
	if err != nil {
		return nil, err
	}
	return &ValidateAgeOutput{
		RunId:   runId.String(),
		Age:     age,
		Message: message,
	}, nil
}

// FetchRecord is the body of the fetch-record task. The parent output is the
// proof of validation: its message is handed to the orchestrator, which
// refuses to fetch without it.
func (d *Deps) FetchRecord(ctx context.Context, input *Input, parent *ValidateAgeOutput) (*FetchRecordOutput, error) {
	ctx = logger.CtxWithAttrs(ctx, zap.String("task", FetchRecordTaskName))
	if parent == nil || parent.RunId == "" {
		err := fmt.Errorf("%s output is missing", ValidateAgeTaskName)
		logger.NewFromCtx(ctx).Error("cannot fetch record", zap.Error(err))
		return nil, err
	}
	runId := ids.RunId(parent.RunId)
	res := d.orchestrator(input).Fetch(ctx, runId, outcome.Ok(parent.Message))
	record, err := res.Unpack()
	if err != nil {
		return nil, err
	}
	return &FetchRecordOutput{
		RunId:  runId.String(),
		Record: record,
	}, nil
}

// DecodeRunOutput extracts the fetch-record output from a finished run's
// output, which is keyed by task name.
func DecodeRunOutput(output any) (*FetchRecordOutput, error) {
	src := output
	if byTask, ok := output.(map[string]any); ok {
		if taskOutput, ok := byTask[FetchRecordTaskName]; ok {
			src = taskOutput
		}
	}
	var out FetchRecordOutput
	if err := mapstructure.WeakDecode(src, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", FetchRecordTaskName, err)
	}
	if out.RunId == "" {
		return nil, fmt.Errorf("%s output is missing", FetchRecordTaskName)
	}
	return &out, nil
}
