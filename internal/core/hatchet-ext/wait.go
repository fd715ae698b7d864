package hatchet_ext

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hatchet-dev/hatchet/pkg/client/rest"
	hatchet "github.com/hatchet-dev/hatchet/sdks/go"
)

// WaitRun polls the run until it reaches a terminal status. Cancellation is
// left to ctx; a failed or cancelled run ends polling with its error message.
func WaitRun(ctx context.Context, c *hatchet.Client, runID string) (*rest.V1WorkflowRunDetails, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = 500 * time.Millisecond
	backoffCfg.MaxInterval = 5 * time.Second
	backoffCfg.MaxElapsedTime = 0

	var run *rest.V1WorkflowRunDetails
	err := backoff.Retry(func() error {
		runModel, err := c.Runs().Get(ctx, runID)
		if err != nil {
			return err
		}
		run = runModel
		return runStatusErr(runID, run.Run.Status, run.Run.ErrorMessage)
	}, backoff.WithContext(backoffCfg, ctx))
	if err != nil {
		return nil, err
	}
	return run, nil
}

func runStatusErr(runID string, status rest.V1TaskStatus, errorMessage *string) error {
	switch status {
	case rest.V1TaskStatusCOMPLETED:
		return nil
	case rest.V1TaskStatusFAILED, rest.V1TaskStatusCANCELLED:
		msg := ""
		if errorMessage != nil {
			msg = *errorMessage
		}
		return backoff.Permanent(fmt.Errorf("workflow %s finished with status %s: %s", runID, status, msg))
	default:
		return fmt.Errorf("workflow %s not finished (status %s)", runID, status)
	}
}
