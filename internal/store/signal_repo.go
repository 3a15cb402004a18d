package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/argos/internal/contracts"
)

// SignalRepository persists run artifacts. Signals are append-only:
// 런 산출물은 불변 아티팩트이며 UPDATE하지 않는다.
type SignalRepository struct {
	db *pgxpool.Pool
}

// NewSignalRepository creates a repository
func NewSignalRepository(db *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{db: db}
}

// SaveRun stores the gate state and every signal of one run
func (r *SignalRepository) SaveRun(ctx context.Context, runID string, gate contracts.MarketGateState, sigs []contracts.Signal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	components, err := json.Marshal(gate.Components)
	if err != nil {
		return fmt.Errorf("marshal gate components: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO signals.gate_states (run_id, date, composite, level, components, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, gate.Date, gate.Composite, string(gate.Level), components, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert gate state: %w", err)
	}

	for _, sig := range sigs {
		consensus, err := json.Marshal(sig.Consensus)
		if err != nil {
			return fmt.Errorf("marshal consensus for %s: %w", sig.Code, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO signals.signals
				(run_id, code, name, date, grade, composite, consensus,
				 close, target_price, stop_price, position_hint, manual_review, generated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			runID, sig.Code, sig.Name, sig.Date, string(sig.Grade), sig.Composite, consensus,
			sig.Close, sig.TargetPrice, sig.StopPrice, sig.PositionHint, sig.ManualReview, sig.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("insert signal %s: %w", sig.Code, err)
		}
	}

	return tx.Commit(ctx)
}

// ListByDate returns all signals generated for one session date,
// newest run first
func (r *SignalRepository) ListByDate(ctx context.Context, date time.Time) ([]contracts.Signal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, name, date, grade, composite, consensus,
		       close, target_price, stop_price, position_hint, manual_review, generated_at
		FROM signals.signals
		WHERE date = $1
		ORDER BY generated_at DESC, composite DESC`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	sigs := make([]contracts.Signal, 0)
	for rows.Next() {
		var sig contracts.Signal
		var grade string
		var consensus []byte

		err := rows.Scan(
			&sig.Code, &sig.Name, &sig.Date, &grade, &sig.Composite, &consensus,
			&sig.Close, &sig.TargetPrice, &sig.StopPrice, &sig.PositionHint,
			&sig.ManualReview, &sig.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}

		sig.Grade = contracts.Grade(grade)
		if err := json.Unmarshal(consensus, &sig.Consensus); err != nil {
			return nil, fmt.Errorf("unmarshal consensus for %s: %w", sig.Code, err)
		}

		sigs = append(sigs, sig)
	}

	return sigs, rows.Err()
}
