package postgres

// SQL queries for alert storage.

const (
	// querySaveAlert inserts an alert keyed by its id.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for a redelivered alert.
	querySaveAlert = `
		INSERT INTO alerts (
			id, rule_id, device_id, kind, observed_size,
			condition, triggered_at, payload_snapshot, correlation_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`

	// queryListAlertsByDevice returns the newest alerts for one device.
	queryListAlertsByDevice = `
		SELECT
			id, rule_id, device_id, kind, observed_size,
			condition, triggered_at, payload_snapshot, correlation_id
		FROM alerts
		WHERE device_id = $1
		ORDER BY triggered_at DESC, id DESC
		LIMIT $2
	`

	queryAlertsTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'alerts'
		)
	`
)
