package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/oxjest/mockgraph/runtime/mock"
	"github.com/oxjest/mockgraph/runtime/value"
)

// CallRecord is one stored stub invocation. Values that have no JSON form
// are stored as their description.
type CallRecord struct {
	SnapshotID uuid.UUID         `json:"snapshotId"`
	Stub       string            `json:"stub"`
	Seq        int               `json:"seq"`
	Order      int64             `json:"order"`
	Args       []json.RawMessage `json:"args"`
	ResultType mock.ResultType   `json:"resultType"`
	Result     json.RawMessage   `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// RecordCalls appends calls under stubName. Sequence numbers continue after
// calls already stored for the same stub.
func (s *Store) RecordCalls(ctx context.Context, snapshotID uuid.UUID, stubName string, calls []mock.Call) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			s.rebind("SELECT COALESCE(MAX(seq) + 1, 0) FROM stub_calls WHERE snapshot_id = ? AND stub = ?"),
			snapshotID.String(), stubName).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read call sequence: %w", err)
		}

		insert := s.rebind(`INSERT INTO stub_calls
    (snapshot_id, stub, seq, invocation_order, args, result_type, result_value, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

		for i, c := range calls {
			args := make([]json.RawMessage, len(c.Args))
			for j, a := range c.Args {
				args[j] = encodeValue(a)
			}
			argsJSON, err := json.Marshal(args)
			if err != nil {
				return err
			}

			var result, errText sql.NullString
			if c.Result.Err != nil {
				errText = sql.NullString{String: c.Result.Err.Error(), Valid: true}
			} else if c.Result.Type == mock.ResultReturn {
				result = sql.NullString{String: string(encodeValue(c.Result.Value)), Valid: true}
			}

			_, err = tx.ExecContext(ctx, insert,
				snapshotID.String(), stubName, next+i, c.Order, string(argsJSON),
				string(c.Result.Type), result, errText)
			if err != nil {
				return fmt.Errorf("failed to record call %d of %s: %w", i, stubName, err)
			}
		}
		return nil
	})
}

// Calls returns every call recorded for a snapshot in invocation order.
func (s *Store) Calls(ctx context.Context, snapshotID uuid.UUID) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT stub, seq, invocation_order, args, result_type, result_value, error
FROM stub_calls WHERE snapshot_id = ? ORDER BY invocation_order, stub, seq`), snapshotID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load calls: %w", err)
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var (
			rec        = CallRecord{SnapshotID: snapshotID}
			args       string
			resultType string
			result     sql.NullString
			errText    sql.NullString
		)
		if err := rows.Scan(&rec.Stub, &rec.Seq, &rec.Order, &args, &resultType, &result, &errText); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(args), &rec.Args); err != nil {
			return nil, fmt.Errorf("decoding args of %s call %d: %w", rec.Stub, rec.Seq, err)
		}
		rec.ResultType = mock.ResultType(resultType)
		if result.Valid {
			rec.Result = json.RawMessage(result.String)
		}
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// encodeValue renders primitives as JSON and everything else as its description.
func encodeValue(v value.Value) json.RawMessage {
	switch x := v.(type) {
	case string, bool, float64, float32, int, int64:
		if data, err := json.Marshal(x); err == nil {
			return data
		}
	}
	if value.IsNull(v) {
		return json.RawMessage("null")
	}
	data, _ := json.Marshal(value.Describe(v))
	return data
}
