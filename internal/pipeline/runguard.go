package pipeline

import (
	"errors"
	"sync/atomic"
)

// ErrRunInProgress is returned when a run token is requested while
// another run still holds it
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// RunGuard enforces one-run-at-a-time semantics via an explicit token
// handed to the pipeline entry point. 전역 플래그 대신 호출자가 토큰의
// 수명을 소유한다.
type RunGuard struct {
	running atomic.Bool
}

// NewRunGuard creates a run guard
func NewRunGuard() *RunGuard {
	return &RunGuard{}
}

// TryAcquire returns a token when no run is active, ErrRunInProgress
// otherwise. Non-blocking.
func (g *RunGuard) TryAcquire() (*RunToken, error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	return &RunToken{guard: g}, nil
}

// RunToken represents ownership of the single run slot
type RunToken struct {
	guard    *RunGuard
	released atomic.Bool
}

// Release returns the run slot. Idempotent.
func (t *RunToken) Release() {
	if t.released.CompareAndSwap(false, true) {
		t.guard.running.Store(false)
	}
}
