package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/consensus"
	"github.com/wonny/argos/internal/marketgate"
	"github.com/wonny/argos/internal/pipeline"
	"github.com/wonny/argos/internal/providers"
	"github.com/wonny/argos/internal/scorer"
	"github.com/wonny/argos/internal/screener"
	"github.com/wonny/argos/internal/signals"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/internal/store"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/database"
	"github.com/wonny/argos/pkg/httputil"
	"github.com/wonny/argos/pkg/logger"
	"github.com/wonny/argos/pkg/redis"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 시그널 파이프라인 실행",
	Long: `수집기 스냅샷과 시장 지표를 읽어 전체 파이프라인을 실행합니다.

Example:
  go run ./cmd/argos run --snapshot data/snapshot.json --indicators data/market.json
  go run ./cmd/argos run --snapshot data/snapshot.json --indicators data/market.json --dry-run`,
	RunE: runPipeline,
}

var (
	runSnapshotPath   string
	runIndicatorsPath string
	runDryRun         bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSnapshotPath, "snapshot", "", "snapshot JSON artifact (required)")
	runCmd.Flags().StringVar(&runIndicatorsPath, "indicators", "", "market indicators JSON artifact (required)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "skip persistence of run artifacts")
	_ = runCmd.MarkFlagRequired("snapshot")
	_ = runCmd.MarkFlagRequired("indicators")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, strat, log, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()

	loader := snapshot.NewLoader(log)
	snap, report, err := loader.LoadFile(runSnapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if len(report.Rejected) > 0 {
		log.WithField("rejected", report.Rejected).Warn("Snapshot entries rejected at ingestion boundary")
	}

	indicators, err := loader.LoadIndicatorsFile(runIndicatorsPath)
	if err != nil {
		return fmt.Errorf("load indicators: %w", err)
	}

	provs, err := buildProviders(ctx, cfg, log)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(cfg.Redis, log)
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "argos")

	configHash, err := strategy.Hash(strat)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}

	engine, err := consensus.NewEngine(provs, strat.AI, configHash, cache, log)
	if err != nil {
		return err
	}

	var repo *store.SignalRepository
	if cfg.Database.Enabled && !runDryRun {
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		repo = store.NewSignalRepository(pool)
	}

	pipe := pipeline.New(
		screener.NewScreener(strat.Screening, log),
		scorer.NewScorer(strat.Scoring, log),
		marketgate.NewGate(strat.Gate, log),
		engine,
		signals.NewGenerator(strat.Signals, log),
		repo,
		strat,
		log,
	)

	guard := pipeline.NewRunGuard()
	token, err := guard.TryAcquire()
	if err != nil {
		return err
	}
	defer token.Release()

	result, err := pipe.Run(ctx, token, pipeline.RunConfig{
		RunID:      pipeline.GenerateRunID(),
		Snapshot:   snap,
		Indicators: indicators,
		ConfigHash: configHash,
	})
	if err != nil {
		return err
	}

	printRunResult(result)
	return nil
}

// buildProviders wires every enabled AI provider adapter
func buildProviders(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]providers.Client, error) {
	provs := make([]providers.Client, 0, 3)

	if cfg.Claude.Enabled {
		claude, err := providers.NewClaudeClient(cfg.Claude, log)
		if err != nil {
			return nil, err
		}
		provs = append(provs, claude)
	}

	if cfg.Gemini.Enabled {
		gemini, err := providers.NewGeminiClient(ctx, cfg.Gemini, log)
		if err != nil {
			return nil, err
		}
		provs = append(provs, gemini)
	}

	if cfg.OpenAI.Enabled {
		openai, err := providers.NewOpenAIClient(cfg.OpenAI, httputil.New(log), log)
		if err != nil {
			return nil, err
		}
		provs = append(provs, openai)
	}

	return provs, nil
}

func printRunResult(result *pipeline.RunResult) {
	fmt.Println("=== Argos Run Result ===")
	fmt.Printf("Run ID:     %s\n", result.RunID)
	fmt.Printf("Date:       %s\n", result.Date.Format("2006-01-02"))
	fmt.Printf("Gate:       %s (%.1f)\n", result.GateState.Level, result.GateState.Composite)
	fmt.Printf("Candidates: %d screened, %d scored\n", len(result.Candidates), len(result.Scores))
	fmt.Printf("Duration:   %.1fs\n", result.Duration.Seconds())
	fmt.Println()

	if len(result.Signals) == 0 {
		fmt.Println("No signals emitted.")
		return
	}

	fmt.Printf("%-8s %-16s %-5s %8s %10s %10s %-6s\n",
		"CODE", "NAME", "GRADE", "SCORE", "TARGET", "STOP", "REVIEW")
	for _, sig := range result.Signals {
		review := ""
		if sig.ManualReview {
			review = "manual"
		}
		fmt.Printf("%-8s %-16s %-5s %8.1f %10.0f %10.0f %-6s\n",
			sig.Code, sig.Name, sig.Grade, sig.Composite,
			sig.TargetPrice, sig.StopPrice, review)
	}
}
