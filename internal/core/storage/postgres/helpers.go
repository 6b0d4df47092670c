package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
)

// marshalPayload encodes an alert's payload snapshot for the JSONB column.
// A nil snapshot is stored as an empty object.
func marshalPayload(p v1.Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload snapshot: %w", err)
	}
	return data, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAlertRow scans one alerts row. Works with both sql.Row and sql.Rows.
func scanAlertRow(row scanner) (*v1.Alert, error) {
	var (
		alert         v1.Alert
		kind          string
		payloadJSON   []byte
		correlationID sql.NullString
	)

	err := row.Scan(
		&alert.ID,
		&alert.RuleID,
		&alert.DeviceID,
		&kind,
		&alert.ObservedSize,
		&alert.Condition,
		&alert.TriggeredAt,
		&payloadJSON,
		&correlationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan alert row: %w", err)
	}

	alert.Kind = v1.AlertKind(kind)
	alert.CorrelationID = correlationID.String
	alert.TriggeredAt = alert.TriggeredAt.UTC()

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &alert.PayloadSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload snapshot: %w", err)
		}
	}

	return &alert, nil
}
