package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ashita-ai/hospitalops/internal/integrity"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// MirroredControlLog is a CONTROL_LOG row with the hash stored alongside it.
type MirroredControlLog struct {
	model.ControlLog
	RecordHash string `json:"record_hash"`
}

// WriteControlLog mirrors one audit record. Writing a log_id that already
// exists is a no-op, so seeding a reused database is idempotent.
func (db *DB) WriteControlLog(ctx context.Context, rec model.ControlLog) error {
	hash := integrity.RecordHash(rec)
	err := mirrorWrites.Do(ctx, func() error {
		_, err := db.db.ExecContext(ctx,
			`INSERT INTO control_log (
			     log_id, timestamp, user_request_text, delegated_agent,
			     transaction_id, delegation_success, record_hash
			 )
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(log_id) DO NOTHING`,
			rec.LogID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.UserRequestText,
			string(rec.DelegatedAgent), rec.TransactionID, rec.DelegationSuccess, hash,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("storage: insert control log %d: %w", rec.LogID, err)
	}
	return nil
}

// ListControlLogs returns mirrored records in log_id order. limit <= 0
// returns all rows.
func (db *DB) ListControlLogs(ctx context.Context, limit int) ([]MirroredControlLog, error) {
	query := `SELECT log_id, timestamp, user_request_text, delegated_agent,
	                 transaction_id, delegation_success, record_hash
	          FROM control_log ORDER BY log_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list control logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []MirroredControlLog{}
	for rows.Next() {
		var (
			r     MirroredControlLog
			ts    string
			agent string
		)
		if err := rows.Scan(&r.LogID, &ts, &r.UserRequestText, &agent,
			&r.TransactionID, &r.DelegationSuccess, &r.RecordHash); err != nil {
			return nil, fmt.Errorf("storage: scan control log: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("storage: parse control log %d timestamp: %w", r.LogID, err)
		}
		r.DelegatedAgent = model.AgentName(agent)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate control logs: %w", err)
	}
	return out, nil
}

// GetControlLog returns one mirrored record, or ErrNotFound.
func (db *DB) GetControlLog(ctx context.Context, logID int64) (MirroredControlLog, error) {
	var (
		r     MirroredControlLog
		ts    string
		agent string
	)
	err := db.db.QueryRowContext(ctx,
		`SELECT log_id, timestamp, user_request_text, delegated_agent,
		        transaction_id, delegation_success, record_hash
		 FROM control_log WHERE log_id = ?`, logID,
	).Scan(&r.LogID, &ts, &r.UserRequestText, &agent, &r.TransactionID, &r.DelegationSuccess, &r.RecordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return MirroredControlLog{}, fmt.Errorf("storage: control log %d: %w", logID, ErrNotFound)
	}
	if err != nil {
		return MirroredControlLog{}, fmt.Errorf("storage: get control log %d: %w", logID, err)
	}
	if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return MirroredControlLog{}, fmt.Errorf("storage: parse control log %d timestamp: %w", logID, err)
	}
	r.DelegatedAgent = model.AgentName(agent)
	return r, nil
}

// CountControlLogs returns the number of mirrored records.
func (db *DB) CountControlLogs(ctx context.Context) (int, error) {
	var n int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM control_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count control logs: %w", err)
	}
	return n, nil
}

// Records strips the stored hashes, for seeding an audit log.
func Records(rows []MirroredControlLog) []model.ControlLog {
	out := make([]model.ControlLog, len(rows))
	for i, r := range rows {
		out[i] = r.ControlLog
	}
	return out
}
