package gatedfetch

import (
	"fmt"
	"slices"
	"strings"
	"time"

	hatchetLib "github.com/hatchet-dev/hatchet/sdks/go"
	"github.com/samber/lo"
	"github.com/stroppy-io/gatedfetch/internal/core/defaults"
	hatchet_ext "github.com/stroppy-io/gatedfetch/internal/core/hatchet-ext"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
)

const (
	WorkflowName hatchet_ext.WorkflowName = "age-gated-fetch"

	ValidateAgeTaskName hatchet_ext.TaskName = "validate-age"
	FetchRecordTaskName hatchet_ext.TaskName = "fetch-record"

	validateTimeout = 30 * time.Second
	// added to the fetch deadline so the step reports its own timeout first
	fetchTimeoutSlack = 30 * time.Second
)

func Workflow(c *hatchetLib.Client, deps *Deps) *hatchetLib.Workflow {
	workflow := c.NewWorkflow(
		WorkflowName,
		hatchetLib.WithWorkflowDescription("Validate an age, then fetch and decode one JSON record"),
	)

	/*
		Validate age
	*/
	validateAgeTask := workflow.NewTask(
		ValidateAgeTaskName,
		hatchet_ext.WTask(func(
			ctx hatchetLib.Context,
			input *Input,
		) (*ValidateAgeOutput, error) {
			out, err := deps.ValidateAge(ctx, input)
			if err != nil {
				return nil, err
			}
			ctx.Log(fmt.Sprintf("age %d accepted: %s", out.Age, out.Message))
			return out, nil
		}),
		hatchetLib.WithExecutionTimeout(validateTimeout),
	)

	/*
		Fetch record, only scheduled when validate-age succeeded
	*/
	_ = workflow.NewTask(
		FetchRecordTaskName,
		hatchet_ext.PTask(validateAgeTask, func(
			ctx hatchetLib.Context,
			input *Input,
			parentOutput *ValidateAgeOutput,
		) (*FetchRecordOutput, error) {
			out, err := deps.FetchRecord(ctx, input, parentOutput)
			if err != nil {
				return nil, err
			}
			ctx.Log(fmt.Sprintf("record fetched with status %d", out.Record.StatusCode))
			return out, nil
		}),
		hatchetLib.WithParents(validateAgeTask),
		hatchetLib.WithExecutionTimeout(
			defaults.DurationOrDefault(deps.Fetch.Timeout, fetch.DefaultTimeout)+fetchTimeoutSlack,
		),
	)

	/*
		Report which step failed; nothing to roll back
	*/
	workflow.OnFailure(func(
		ctx hatchetLib.Context,
		input Input,
	) (FailureHandlerOutput, error) {
		details := formatStepErrors(ctx.StepRunErrors())
		ctx.Log("age-gated fetch failed: " + details)
		return FailureHandlerOutput{
			FailureHandled: true,
			ErrorDetails:   details,
		}, nil
	})

	return workflow
}

func formatStepErrors(stepErrors map[string]string) string {
	steps := lo.Keys(stepErrors)
	slices.Sort(steps)
	return strings.Join(lo.Map(steps, func(step string, _ int) string {
		return step + ": " + stepErrors[step]
	}), "; ")
}
