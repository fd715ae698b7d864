package gatedfetch

import (
	"context"
	"time"

	hatchetLib "github.com/hatchet-dev/hatchet/sdks/go"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	hatchet_ext "github.com/stroppy-io/gatedfetch/internal/core/hatchet-ext"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
)

const BatchWorkflowName hatchet_ext.WorkflowName = "age-gated-fetch-batch"

type BatchInput struct {
	Runs []Input `json:"runs"`
}

type BatchOutput struct {
	Results []*FetchRecordOutput `json:"results"`
}

// WithRunIds assigns a fresh run id to every input that has none.
func WithRunIds(inputs []Input) []Input {
	return lo.Map(inputs, func(in Input, _ int) Input {
		in.RunId = ids.ParseRunId(in.RunId).String()
		return in
	})
}

// BatchWorkflow submits independent age-gated-fetch runs and collects their
// records. Every run keeps its own state; the first failed run fails the batch.
func BatchWorkflow(c *hatchetLib.Client) *hatchetLib.StandaloneTask {
	return c.NewStandaloneTask(
		BatchWorkflowName,
		hatchet_ext.WTask(func(
			ctx hatchetLib.Context,
			input *BatchInput,
		) (*BatchOutput, error) {
			results, err := RunAndWait(ctx, c, input.Runs)
			if err != nil {
				return nil, err
			}
			return &BatchOutput{Results: results}, nil
		}),
		hatchetLib.WithWorkflowDescription("Run several independent age-gated fetches"),
		hatchetLib.WithExecutionTimeout(30*time.Minute),
	)
}

// RunAndWait triggers one age-gated-fetch run per input and waits for all of them.
func RunAndWait(ctx context.Context, c *hatchetLib.Client, inputs []Input) ([]*FetchRecordOutput, error) {
	runs := lo.Map(WithRunIds(inputs), func(in Input, _ int) hatchetLib.RunManyOpt {
		return hatchetLib.RunManyOpt{
			Opts:  []hatchetLib.RunOptFunc{},
			Input: in,
		}
	})
	runRefs, err := c.RunMany(ctx, WorkflowName, runs)
	if err != nil {
		return nil, err
	}

	waitPool := pool.NewWithResults[*FetchRecordOutput]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for _, ref := range runRefs {
		waitPool.Go(func(ctx context.Context) (*FetchRecordOutput, error) {
			run, err := hatchet_ext.WaitRun(ctx, c, ref.RunId)
			if err != nil {
				return nil, err
			}
			return DecodeRunOutput(run.Run.Output)
		})
	}
	return waitPool.Wait()
}
