package consensus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/providers"
	"github.com/wonny/argos/internal/strategy"
	"github.com/wonny/argos/pkg/logger"
	"github.com/wonny/argos/pkg/redis"
)

// Engine fans out (candidate × provider) analysis tasks under a global
// concurrency cap and reconciles the settled verdicts per candidate.
// ⭐ SSOT: AI 교차검증은 여기서만
//
// 불변식: 합의 재조정은 해당 후보의 모든 태스크가 settle된 뒤에만 수행.
// 부분 결과는 절대 소비되지 않는다.
type Engine struct {
	providers  []providers.Client
	config     strategy.AI
	configHash string
	cache      *redis.Cache
	logger     *logger.Logger

	sem      *semaphore.Weighted
	limiters map[string]*rate.Limiter // per provider

	// in-flight instrumentation (tests assert the cap is respected)
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// NewEngine creates a consensus engine.
// 빈 프로바이더 집합은 설정 오류: 즉시 실패.
func NewEngine(provs []providers.Client, cfg strategy.AI, configHash string, cache *redis.Cache, log *logger.Logger) (*Engine, error) {
	if len(provs) == 0 {
		return nil, fmt.Errorf("consensus engine requires at least one provider")
	}

	limiters := make(map[string]*rate.Limiter, len(provs))
	for _, p := range provs {
		limiters[p.ID()] = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}

	return &Engine{
		providers:  provs,
		config:     cfg,
		configHash: configHash,
		cache:      cache,
		logger:     log,
		sem:        semaphore.NewWeighted(int64(cfg.Concurrency)),
		limiters:   limiters,
	}, nil
}

// MaxInFlight returns the highest number of concurrently in-flight
// provider calls observed so far
func (e *Engine) MaxInFlight() int64 {
	return e.maxInFlight.Load()
}

// Analyze runs the fan-out/fan-in for the given candidates (already
// truncated to top-N by the caller) and returns one ConsensusResult per
// candidate. The returned map is complete: every input candidate has an
// entry, possibly marked unavailable.
func (e *Engine) Analyze(ctx context.Context, requests []providers.Request) (map[string]contracts.ConsensusResult, error) {
	results := make(map[string]contracts.ConsensusResult, len(requests))
	if len(requests) == 0 {
		return results, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, e.config.RunTimeout.Std())
	defer cancel()

	// Resolve cache hits before dispatching any provider call
	pending := make([]providers.Request, 0, len(requests))
	for _, req := range requests {
		if cached, ok := e.cachedResult(runCtx, req); ok {
			results[req.Code] = cached
			continue
		}
		pending = append(pending, req)
	}

	if len(pending) == 0 {
		return results, nil
	}

	// Each task owns exactly one slot; no shared mutable state across
	// suspended tasks.
	verdicts := make([][]contracts.AIVerdict, len(pending))
	for i := range verdicts {
		verdicts[i] = make([]contracts.AIVerdict, len(e.providers))
	}

	var wg sync.WaitGroup
	for ci := range pending {
		for pi := range e.providers {
			wg.Add(1)
			go func(ci, pi int) {
				defer wg.Done()
				verdicts[ci][pi] = e.runTask(runCtx, pending[ci], e.providers[pi])
			}(ci, pi)
		}
	}

	// Full-barrier join: consensus never observes partial verdict sets
	wg.Wait()

	for ci, req := range pending {
		result := Reconcile(req.Code, verdicts[ci], e.config.PrimaryProvider)
		results[req.Code] = result
		e.storeResult(runCtx, req, result)
	}

	e.logger.WithFields(map[string]interface{}{
		"candidates":    len(requests),
		"cache_hits":    len(requests) - len(pending),
		"max_in_flight": e.MaxInFlight(),
	}).Info("AI consensus completed")

	return results, nil
}

// runTask executes one (candidate, provider) analysis under the global
// semaphore, retrying transient failures with exponential backoff.
// 어떤 실패도 런 전체를 중단시키지 않는다: 실패는 AIVerdict로 기록.
func (e *Engine) runTask(ctx context.Context, req providers.Request, client providers.Client) contracts.AIVerdict {
	verdict := contracts.AIVerdict{
		Code:     req.Code,
		Provider: client.ID(),
	}

	// FIFO admission into the limiter
	if err := e.sem.Acquire(ctx, 1); err != nil {
		// Run timed out before this task was admitted
		verdict.Error = fmt.Sprintf("not admitted before run deadline: %v", err)
		return verdict
	}
	defer e.sem.Release(1)

	cur := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		max := e.maxInFlight.Load()
		if cur <= max || e.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	start := time.Now()
	attempts := 0

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.config.BackoffInitial.Std()
	policy.MaxInterval = e.config.BackoffMax.Std()
	policy.MaxElapsedTime = 0 // bounded by attempt count and run deadline

	var analysis *providers.Analysis
	operation := func() error {
		attempts++

		if err := e.limiters[client.ID()].Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout.Std())
		defer cancel()

		result, err := client.Submit(attemptCtx, req)
		if err != nil {
			if providers.IsPermanent(err) {
				// 인증/파싱 실패: 재시도 없음
				return backoff.Permanent(err)
			}
			e.logger.WithFields(map[string]interface{}{
				"code":     req.Code,
				"provider": client.ID(),
				"attempt":  attempts,
				"error":    err.Error(),
			}).Warn("Provider attempt failed, will retry")
			return err
		}

		analysis = result
		return nil
	}

	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(e.config.MaxAttempts-1)),
		ctx,
	)

	err := backoff.Retry(operation, retryPolicy)

	verdict.Attempts = attempts
	verdict.Latency = time.Since(start)

	if err != nil {
		verdict.Error = err.Error()
		e.logger.WithFields(map[string]interface{}{
			"code":     req.Code,
			"provider": client.ID(),
			"attempts": attempts,
			"error":    err.Error(),
		}).Warn("Provider analysis exhausted")
		return verdict
	}

	verdict.Success = true
	verdict.Verdict = analysis.Verdict
	verdict.Confidence = analysis.Confidence
	verdict.Rationale = analysis.Rationale
	return verdict
}

// cacheKey is stable per (strategy hash, code, session date).
// 전략 설정이 바뀌면 이전 합의 결과는 재사용하지 않는다.
func (e *Engine) cacheKey(req providers.Request) string {
	return fmt.Sprintf("consensus:%s:%s:%s", e.configHash, req.Code, req.Date.Format("2006-01-02"))
}

// cachedResult returns a previously settled consensus for this candidate
// and session, avoiding repeat provider billing on re-runs
func (e *Engine) cachedResult(ctx context.Context, req providers.Request) (contracts.ConsensusResult, bool) {
	var result contracts.ConsensusResult
	if e.cache == nil {
		return result, false
	}

	found, err := e.cache.Get(ctx, e.cacheKey(req), &result)
	if err != nil {
		e.logger.WithError(err).Warn("Consensus cache read failed")
		return result, false
	}
	return result, found
}

// storeResult caches settled results. Unavailable results are not cached
// so the next run retries the providers.
func (e *Engine) storeResult(ctx context.Context, req providers.Request, result contracts.ConsensusResult) {
	if e.cache == nil || result.Unavailable {
		return
	}

	if err := e.cache.Set(ctx, e.cacheKey(req), result, e.config.CacheTTL.Std()); err != nil {
		e.logger.WithError(err).Warn("Consensus cache write failed")
	}
}
