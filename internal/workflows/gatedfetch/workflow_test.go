package gatedfetch

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	hatchetLib "github.com/hatchet-dev/hatchet/sdks/go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	hatchet_ext "github.com/stroppy-io/gatedfetch/internal/core/hatchet-ext"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
)

const runTimeout = 2 * time.Minute

func testHatchetClient(t *testing.T) *hatchetLib.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping hatchet integration test in short mode")
	}
	if os.Getenv(hatchet_ext.HatchetClientTokenKey) == "" {
		t.Skipf("%s is not set", hatchet_ext.HatchetClientTokenKey)
	}
	c, err := hatchet_ext.HatchetClient()
	require.NoError(t, err)
	return c
}

// startWorker registers both workflows on a dedicated worker and stops it
// when the test ends.
func startWorker(t *testing.T, c *hatchetLib.Client, deps *Deps) {
	t.Helper()
	worker, err := c.NewWorker(
		"gatedfetch-test-"+ids.NewRunId().String(),
		hatchetLib.WithWorkflows(
			Workflow(c, deps),
			BatchWorkflow(c),
		),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.StartBlocking(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWorkflow_RejectedAgeNeverFetches(t *testing.T) {
	c := testHatchetClient(t)
	deps, hits, _ := newDeps(t, `{"id":28}`)
	startWorker(t, c, deps)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, err := RunAndWait(ctx, c, []Input{{Age: lo.ToPtr(16)}})

	require.ErrorContains(t, err, "Age less than 18")
	require.Zero(t, hits.Load())
}

func TestWorkflow_AcceptedAgeFetches(t *testing.T) {
	c := testHatchetClient(t)
	deps, hits, _ := newDeps(t, `{"id":28,"title":"x"}`)
	startWorker(t, c, deps)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	inputs := WithRunIds([]Input{{Age: lo.ToPtr(agegate.DefaultThreshold)}, {}})
	results, err := RunAndWait(ctx, c, inputs)

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.ElementsMatch(t,
		[]string{inputs[0].RunId, inputs[1].RunId},
		lo.Map(results, func(r *FetchRecordOutput, _ int) string { return r.RunId }),
	)
	for _, r := range results {
		require.Equal(t, http.StatusOK, r.Record.StatusCode)
		require.Equal(t, map[string]any{"id": float64(28), "title": "x"}, r.Record.Data)
	}
	require.EqualValues(t, 2, hits.Load())
}
