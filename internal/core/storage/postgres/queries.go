package postgres

// SQL queries for document and usage storage

const (
	// queryInsertDocument inserts a document unless (kind, id) already exists.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) when a concurrent or
	// redelivered create got there first.
	queryInsertDocument = `
		INSERT INTO documents (
			kind, id, scope_id, created_at, last_modified_at, version, deleted, data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind, id) DO NOTHING
		RETURNING id
	`

	queryFindDocument = `
		SELECT
			kind, id, scope_id, created_at, last_modified_at, version, deleted, data
		FROM documents
		WHERE kind = $1 AND id = $2
	`

	// queryReplaceDocument overwrites every mutable column. created_at is immutable.
	queryReplaceDocument = `
		UPDATE documents
		SET scope_id = $3,
		    last_modified_at = $4,
		    version = $5,
		    deleted = $6,
		    data = $7
		WHERE kind = $1 AND id = $2
	`

	// queryAddUsage is an additive upsert: an existing (partition, key, day) row is
	// incremented rather than replaced.
	queryAddUsage = `
		INSERT INTO usage_counters (
			partition_id, usage_key, day, weight, count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (partition_id, usage_key, day)
		DO UPDATE SET
			weight     = usage_counters.weight + EXCLUDED.weight,
			count      = usage_counters.count + EXCLUDED.count,
			updated_at = EXCLUDED.updated_at
	`

	queryRangeUsage = `
		SELECT day, weight, count
		FROM usage_counters
		WHERE partition_id = $1
		  AND usage_key = $2
		  AND day >= $3
		  AND day <= $4
	`
)
