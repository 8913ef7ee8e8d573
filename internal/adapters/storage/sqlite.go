package storage

// sqlite.go: histórico de runs del backtest.
//
// Estrategia:
//   - `runs`: una fila por run con el resumen completo y el eco de parámetros.
//   - `rebalance_events`: el log de rebalances de cada run, en orden (seq).
//   - Un run y sus eventos se escriben en una sola transacción.
//   - Prune automático al arrancar: runs > 90d (los eventos caen en cascada).

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/lphedge/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                    TEXT PRIMARY KEY,
    sweep_id              TEXT    NOT NULL DEFAULT '',
    source                TEXT    NOT NULL DEFAULT '',
    created_at            TEXT    NOT NULL,
    start_time            TEXT    NOT NULL,
    end_time              TEXT    NOT NULL,
    points                INTEGER NOT NULL DEFAULT 0,
    initial_price         REAL    NOT NULL,
    lower_bound           REAL    NOT NULL,
    upper_bound           REAL    NOT NULL,
    liquidity             REAL    NOT NULL,
    primary_amount        REAL    NOT NULL,
    initial_complementary REAL    NOT NULL,
    threshold             REAL    NOT NULL,
    k0                    REAL    NOT NULL,
    rebalance_count       INTEGER NOT NULL DEFAULT 0,
    cum_abs_delta         REAL    NOT NULL DEFAULT 0,
    hedge_pnl             REAL    NOT NULL DEFAULT 0,
    lp_pnl                REAL    NOT NULL DEFAULT 0,
    total_pnl             REAL    NOT NULL DEFAULT 0,
    final_price           REAL    NOT NULL DEFAULT 0,
    final_hedge           REAL    NOT NULL DEFAULT 0,
    lp_value_start        REAL    NOT NULL DEFAULT 0,
    lp_value_end          REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rebalance_events (
    run_id        TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq           INTEGER NOT NULL,
    ts            TEXT    NOT NULL,
    price         REAL    NOT NULL,
    anchor_before REAL    NOT NULL,
    move          REAL    NOT NULL,
    k             REAL    NOT NULL,
    primary_now   REAL    NOT NULL,
    hedge_before  REAL    NOT NULL,
    hedge_target  REAL    NOT NULL,
    delta         REAL    NOT NULL,
    cash          REAL    NOT NULL,
    hedge_pnl     REAL    NOT NULL,
    cum_abs_delta REAL    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_sweep   ON runs(sweep_id);
`

const retentionRuns = 90 * 24 * time.Hour

// Ancho fijo para que el orden lexicográfico coincida con el temporal.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound se devuelve cuando el ID no existe.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStorage implementa ports.ResultStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// dsn añade foreign_keys(1) a la ruta. El driver aplica cada _pragma al abrir
// una conexión, así que la cascada de rebalance_events vale para todas las
// conexiones del pool y no solo para la que ejecutó el schema.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// SaveRun persiste el resumen y los eventos en una transacción.
// Si rec.ID está vacío se genera un UUID; si CreatedAt es cero se usa ahora.
func (s *SQLiteStorage) SaveRun(ctx context.Context, rec domain.RunRecord, events []domain.RebalanceEvent) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	sum := rec.Summary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, sweep_id, source, created_at, start_time, end_time, points,
			 initial_price, lower_bound, upper_bound, liquidity, primary_amount,
			 initial_complementary, threshold, k0, rebalance_count, cum_abs_delta,
			 hedge_pnl, lp_pnl, total_pnl, final_price, final_hedge,
			 lp_value_start, lp_value_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SweepID, rec.Source,
		formatTime(rec.CreatedAt), formatTime(sum.StartTime), formatTime(sum.EndTime), sum.Points,
		sum.InitialPrice, sum.Lower, sum.Upper, sum.Liquidity, sum.PrimaryAmount,
		sum.InitialComplementary, sum.Threshold, sum.K0, sum.RebalanceCount, sum.CumulativeAbsDelta,
		sum.HedgePnL, sum.LPPnL, sum.TotalPnL, sum.FinalPrice, sum.FinalHedge.Float(),
		sum.LPValueStart, sum.LPValueEnd,
	); err != nil {
		return "", fmt.Errorf("storage.SaveRun: insert run %s: %w", rec.ID, err)
	}

	if len(events) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO rebalance_events
				(run_id, seq, ts, price, anchor_before, move, k, primary_now,
				 hedge_before, hedge_target, delta, cash, hedge_pnl, cum_abs_delta)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("storage.SaveRun: prepare: %w", err)
		}
		defer stmt.Close()

		for i, ev := range events {
			if _, err := stmt.ExecContext(ctx,
				rec.ID, i, formatTime(ev.Timestamp), ev.Price, ev.AnchorBefore, ev.Move, ev.K, ev.PrimaryNow,
				ev.HedgeBefore.Float(), ev.HedgeTarget.Float(), ev.Delta, ev.Cash, ev.HedgePnL, ev.CumulativeAbsDelta,
			); err != nil {
				return "", fmt.Errorf("storage.SaveRun: insert event %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return rec.ID, nil
}

const runColumns = `
	id, sweep_id, source, created_at, start_time, end_time, points,
	initial_price, lower_bound, upper_bound, liquidity, primary_amount,
	initial_complementary, threshold, k0, rebalance_count, cum_abs_delta,
	hedge_pnl, lp_pnl, total_pnl, final_price, final_hedge,
	lp_value_start, lp_value_end`

// GetRun devuelve un run por ID. ErrRunNotFound si no existe.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, fmt.Errorf("storage.GetRun: %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	return rec, nil
}

// ListRuns devuelve los últimos limit runs, más recientes primero.
// limit <= 0 = sin límite.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1 // LIMIT -1 en SQLite = sin límite
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetEvents devuelve el log de rebalances de un run en orden temporal.
func (s *SQLiteStorage) GetEvents(ctx context.Context, runID string) ([]domain.RebalanceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, price, anchor_before, move, k, primary_now,
		       hedge_before, hedge_target, delta, cash, hedge_pnl, cum_abs_delta
		FROM rebalance_events
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetEvents: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RebalanceEvent
	for rows.Next() {
		var ev domain.RebalanceEvent
		var ts string
		var before, target float64
		if err := rows.Scan(
			&ts, &ev.Price, &ev.AnchorBefore, &ev.Move, &ev.K, &ev.PrimaryNow,
			&before, &target, &ev.Delta, &ev.Cash, &ev.HedgePnL, &ev.CumulativeAbsDelta,
		); err != nil {
			return nil, fmt.Errorf("storage.GetEvents: scan row: %w", err)
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("storage.GetEvents: %w", err)
		}
		ev.HedgeBefore = domain.HedgeQty(before)
		ev.HedgeTarget = domain.HedgeQty(target)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (domain.RunRecord, error) {
	var rec domain.RunRecord
	var created, start, end string
	var finalHedge float64
	sum := &rec.Summary

	if err := r.Scan(
		&rec.ID, &rec.SweepID, &rec.Source, &created, &start, &end, &sum.Points,
		&sum.InitialPrice, &sum.Lower, &sum.Upper, &sum.Liquidity, &sum.PrimaryAmount,
		&sum.InitialComplementary, &sum.Threshold, &sum.K0, &sum.RebalanceCount, &sum.CumulativeAbsDelta,
		&sum.HedgePnL, &sum.LPPnL, &sum.TotalPnL, &sum.FinalPrice, &finalHedge,
		&sum.LPValueStart, &sum.LPValueEnd,
	); err != nil {
		return rec, err
	}
	sum.FinalHedge = domain.HedgeQty(finalHedge)

	var err error
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return rec, err
	}
	if sum.StartTime, err = parseTime(start); err != nil {
		return rec, err
	}
	if sum.EndTime, err = parseTime(end); err != nil {
		return rec, err
	}
	return rec, nil
}

// pruneOld elimina runs antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, formatTime(cutoff))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
