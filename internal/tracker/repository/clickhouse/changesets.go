package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
)

const (
	appendChangeSetQuery = `
INSERT INTO spk_tracker_changesets (network, seq, created_at, payload)
VALUES (?, ?, ?, ?)`

	loadChangeSetsQuery = `
SELECT seq, created_at, payload
FROM spk_tracker_changesets FINAL
WHERE network = ?
ORDER BY seq`
)

// StoredChangeSet is one persisted encoded changeset.
type StoredChangeSet struct {
	Seq       uint64
	CreatedAt time.Time
	Payload   []byte
}

// AppendChangeSet stores an encoded changeset under seq. Writing the same seq
// twice keeps one row.
func (r *Repository) AppendChangeSet(ctx context.Context, network model.Network, seq uint64, payload []byte) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("append_changeset", network, err, start)
	}()

	if err = r.conn.Exec(ctx, appendChangeSetQuery, string(network), seq, start.UTC(), string(payload)); err != nil {
		return fmt.Errorf("insert changeset %d: %w", seq, err)
	}
	return nil
}

// LoadChangeSets returns every changeset of the network in seq order.
func (r *Repository) LoadChangeSets(ctx context.Context, network model.Network) (changesets []StoredChangeSet, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("load_changesets", network, err, start)
	}()

	rows, err := r.conn.Query(ctx, loadChangeSetsQuery, string(network))
	if err != nil {
		return nil, fmt.Errorf("query changesets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close changeset rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			stored  StoredChangeSet
			payload string
		)
		if err = rows.Scan(&stored.Seq, &stored.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan changeset: %w", err)
		}
		stored.Payload = []byte(payload)
		changesets = append(changesets, stored)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changesets: %w", err)
	}
	return changesets, nil
}
