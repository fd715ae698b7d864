package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/stroppy-io/gatedfetch/internal/config"
	"github.com/stroppy-io/gatedfetch/internal/core/envs"
	hatchet_ext "github.com/stroppy-io/gatedfetch/internal/core/hatchet-ext"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/core/logger"
	"github.com/stroppy-io/gatedfetch/internal/domain/agegate"
	"github.com/stroppy-io/gatedfetch/internal/domain/fetch"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
	"github.com/stroppy-io/gatedfetch/internal/infrastructure/valkey"
	"github.com/stroppy-io/gatedfetch/internal/workflows/gatedfetch"
)

var (
	configPath string
	age        int
	url        string
	runs       int
	local      bool
)

const ageUnset = -1

var rootCmd = &cobra.Command{
	Use:   "gatedfetch",
	Short: "Validate an age and fetch one JSON record",
	Long: `Run the age-gated fetch workflow.

By default runs are submitted to hatchet and the command waits for them.
With --local the workflow runs in this process instead.`,
	SilenceUsage: true,
	RunE:         runFetch,
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show journaled state transitions",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envs.Get(config.PathEnvKey, ""), "path to YAML config")
	rootCmd.Flags().IntVar(&age, "age", ageUnset, "age to validate (default from config)")
	rootCmd.Flags().StringVar(&url, "url", "", "record URL (default from config)")
	rootCmd.Flags().IntVar(&runs, "runs", 1, "number of independent runs")
	rootCmd.Flags().BoolVar(&local, "local", false, "run in-process instead of through hatchet")
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.NewFromConfig(&cfg.Logger)
	return cfg, nil
}

func runInput() gatedfetch.Input {
	return gatedfetch.Input{
		Age: lo.Ternary(age == ageUnset, nil, lo.ToPtr(age)),
		URL: url,
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	if runs < 1 {
		return fmt.Errorf("--runs must be positive, got %d", runs)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inputs := gatedfetch.WithRunIds(lo.Times(runs, func(_ int) gatedfetch.Input { return runInput() }))

	var results []*gatedfetch.FetchRecordOutput
	if local {
		results, err = runLocal(cmd.Context(), cfg, inputs)
	} else {
		results, err = runRemote(cmd.Context(), inputs)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// runLocal executes runs one after another; each run is independent.
func runLocal(ctx context.Context, cfg *config.Config, inputs []gatedfetch.Input) ([]*gatedfetch.FetchRecordOutput, error) {
	results := make([]*gatedfetch.FetchRecordOutput, 0, len(inputs))
	for _, in := range inputs {
		orch := fetch.New(
			agegate.NewValidator(cfg.Gate.Threshold),
			lo.FromPtrOr(in.Age, cfg.Gate.Age),
			fetch.Config{URL: lo.CoalesceOrEmpty(in.URL, cfg.Fetch.URL), Timeout: cfg.Fetch.Timeout},
		)
		res := orch.RunWithId(ctx, ids.RunId(in.RunId))
		switch res.Kind {
		case outcome.KindOk:
			results = append(results, &gatedfetch.FetchRecordOutput{RunId: in.RunId, Record: res.Value})
		case outcome.KindValidation:
			return nil, fmt.Errorf("run %s rejected: %w", in.RunId, res.Err)
		case outcome.KindTransport:
			return nil, fmt.Errorf("run %s failed to fetch: %w", in.RunId, res.Err)
		}
	}
	return results, nil
}

func runRemote(ctx context.Context, inputs []gatedfetch.Input) ([]*gatedfetch.FetchRecordOutput, error) {
	c, err := hatchet_ext.HatchetClient()
	if err != nil {
		return nil, err
	}
	return gatedfetch.RunAndWait(ctx, c, inputs)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Valkey.Enabled() {
		return errors.New("valkey is not configured")
	}
	client, err := valkey.NewValkey(&cfg.Valkey)
	if err != nil {
		return err
	}
	defer client.Close()

	var runId ids.RunId
	if len(args) == 1 {
		runId = ids.ParseRunId(args[0])
	}
	entries, err := valkey.NewJournal(client, &cfg.Valkey).History(cmd.Context(), runId)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s %s -> %s", e.At.Format("15:04:05.000"), e.RunId, e.From, e.To)
		if e.Error != "" {
			line += fmt.Sprintf(" [%s] %s", e.Kind, e.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
