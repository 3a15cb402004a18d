package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/argos/internal/consensus"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/marketgate"
	"github.com/wonny/argos/internal/providers"
	"github.com/wonny/argos/internal/scorer"
	"github.com/wonny/argos/internal/screener"
	"github.com/wonny/argos/internal/signals"
	"github.com/wonny/argos/internal/store"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
)

// Pipeline coordinates the signal-generation stages for one run
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
// Snapshot → Screener → Scorer → (MarketGate 독립 평가) →
// AIConsensusEngine(상위 N) → SignalGenerator
type Pipeline struct {
	screener  *screener.Screener
	scorer    *scorer.Scorer
	gate      *marketgate.Gate
	engine    *consensus.Engine
	generator *signals.Generator

	// Optional: run artifacts are persisted when a store is configured
	repo *store.SignalRepository

	config *strategy.Config
	logger *logger.Logger
}

// RunConfig holds the inputs for one pipeline run
type RunConfig struct {
	RunID      string
	Snapshot   *contracts.Snapshot
	Indicators contracts.MarketIndicators
	ConfigHash string // strategy config hash, for run audit
}

// RunResult holds the artifacts of a completed pipeline run
type RunResult struct {
	RunID           string
	Date            time.Time
	ConfigHash      string
	Success         bool
	Error           error
	CompletedStages []string

	Candidates []contracts.Candidate
	Scores     []contracts.CandidateScore
	GateState  contracts.MarketGateState
	Consensus  map[string]contracts.ConsensusResult
	Signals    []contracts.Signal

	Duration time.Duration
}

// New creates a pipeline
func New(
	scr *screener.Screener,
	sc *scorer.Scorer,
	gate *marketgate.Gate,
	engine *consensus.Engine,
	gen *signals.Generator,
	repo *store.SignalRepository,
	cfg *strategy.Config,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		screener:  scr,
		scorer:    sc,
		gate:      gate,
		engine:    engine,
		generator: gen,
		repo:      repo,
		config:    cfg,
		logger:    log,
	}
}

// Run executes the complete pipeline. The caller must hold a valid
// RunToken; the token is not released here, its lifecycle belongs to
// the caller.
func (p *Pipeline) Run(ctx context.Context, token *RunToken, cfg RunConfig) (*RunResult, error) {
	if token == nil {
		return nil, fmt.Errorf("pipeline run requires a run token")
	}
	if cfg.Snapshot == nil {
		return nil, fmt.Errorf("pipeline run requires a snapshot")
	}

	startTime := time.Now()

	result := &RunResult{
		RunID:           cfg.RunID,
		Date:            cfg.Snapshot.Date,
		ConfigHash:      cfg.ConfigHash,
		CompletedStages: make([]string, 0, 5),
	}

	p.logger.WithFields(map[string]interface{}{
		"run_id":      cfg.RunID,
		"date":        cfg.Snapshot.Date.Format("2006-01-02"),
		"instruments": cfg.Snapshot.Count(),
		"config_hash": cfg.ConfigHash,
	}).Info("Starting pipeline run")

	// Stage 1: Screening
	candidates, err := p.screener.Screen(ctx, cfg.Snapshot)
	if err != nil {
		result.Error = fmt.Errorf("screening failed: %w", err)
		return result, result.Error
	}
	result.Candidates = candidates
	result.CompletedStages = append(result.CompletedStages, "screen")

	// Stage 2: Scoring
	scores := p.scorer.ScoreAll(ctx, candidates, cfg.Snapshot)
	result.Scores = scores
	result.CompletedStages = append(result.CompletedStages, "score")

	// Stage 3: Market gate (independent of per-instrument results)
	gateState := p.gate.Evaluate(cfg.Indicators)
	result.GateState = gateState
	result.CompletedStages = append(result.CompletedStages, "gate")

	// Stage 4: AI cross-validation for the top-N scored candidates.
	// RED 게이트면 어차피 전량 차단이므로 프로바이더 호출을 생략한다.
	consensusResults := make(map[string]contracts.ConsensusResult)
	if gateState.AllowsEntry() && len(scores) > 0 {
		requests := p.buildRequests(scores, cfg.Snapshot, gateState)
		consensusResults, err = p.engine.Analyze(ctx, requests)
		if err != nil {
			result.Error = fmt.Errorf("AI consensus failed: %w", err)
			return result, result.Error
		}
	}
	result.Consensus = consensusResults
	result.CompletedStages = append(result.CompletedStages, "consensus")

	// Stage 5: Signal generation
	names := make(map[string]string, len(scores))
	for _, s := range scores {
		names[s.Code] = cfg.Snapshot.Name(s.Code)
	}
	sigs := p.generator.Generate(ctx, scores, gateState, consensusResults, names)
	result.Signals = sigs
	result.CompletedStages = append(result.CompletedStages, "signals")

	// Persist run artifacts (optional)
	if p.repo != nil {
		if err := p.repo.SaveRun(ctx, cfg.RunID, gateState, sigs); err != nil {
			// 영속화 실패는 런 자체를 무효화하지 않는다
			p.logger.WithError(err).Error("Failed to persist run artifacts")
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	p.logger.WithFields(map[string]interface{}{
		"run_id":     cfg.RunID,
		"duration":   result.Duration.Seconds(),
		"gate_level": gateState.Level,
		"signals":    len(sigs),
	}).Info("Pipeline run completed")

	return result, nil
}

// buildRequests selects the top-N candidates by composite score and
// renders their provider request contexts
func (p *Pipeline) buildRequests(
	scores []contracts.CandidateScore,
	snapshot *contracts.Snapshot,
	gate contracts.MarketGateState,
) []providers.Request {
	ranked := make([]contracts.CandidateScore, len(scores))
	copy(ranked, scores)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Code < ranked[j].Code
	})

	topN := p.config.AI.TopN
	if topN > len(ranked) {
		topN = len(ranked)
	}

	requests := make([]providers.Request, 0, topN)
	for _, score := range ranked[:topN] {
		entry, _ := snapshot.Get(score.Code)
		requests = append(requests, providers.Request{
			Code:         score.Code,
			Name:         snapshot.Name(score.Code),
			Date:         score.Date,
			Composite:    score.Composite,
			FlowScore:    score.FlowScore,
			InstScore:    score.InstScore,
			PatternScore: score.PatternScore,
			BonusScore:   score.BonusScore,
			Close:        score.Close,
			ChangePct:    entry.Bar.ChangePct,
			GateLevel:    gate.Level,
		})
	}
	return requests
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102"), uuid.NewString()[:8])
}
