package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biotrack/internal/model"
)

type shipmentRow struct {
	ID      string `db:"id"`
	Version int64  `db:"version"`
	State   string `db:"state"`
	Payload string `db:"payload"`
}

// SaveShipments writes the shipments in one transaction, replacing any stored
// row with the same id.
func SaveShipments(ctx context.Context, db *sqlx.DB, shipments []model.Shipment) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range shipments {
		s := &shipments[i]
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding shipment %s: %w", s.ID, err)
		}
		row := shipmentRow{ID: s.ID, Version: s.Version, State: string(s.State), Payload: string(payload)}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO shipments (id, version, state, payload) VALUES (:id, :version, :state, :payload)
			 ON CONFLICT(id) DO UPDATE SET
			     version = excluded.version,
			     state = excluded.state,
			     payload = excluded.payload,
			     cached_at = CURRENT_TIMESTAMP`,
			row,
		)
		if err != nil {
			return fmt.Errorf("saving shipment %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing shipments: %w", err)
	}
	return nil
}

// DeleteShipments removes the shipments with the given ids.
func DeleteShipments(ctx context.Context, db *sqlx.DB, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM shipments WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := db.ExecContext(ctx, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("deleting shipments: %w", err)
	}
	return nil
}

// LoadShipments returns every stored shipment ordered by id. An empty state
// returns all of them.
func LoadShipments(ctx context.Context, db *sqlx.DB, state model.ShipmentState) ([]model.Shipment, error) {
	var rows []shipmentRow
	var err error
	if state == "" {
		err = db.SelectContext(ctx, &rows, `SELECT id, version, state, payload FROM shipments ORDER BY id`)
	} else {
		err = db.SelectContext(ctx, &rows,
			`SELECT id, version, state, payload FROM shipments WHERE state = ? ORDER BY id`, string(state))
	}
	if err != nil {
		return nil, fmt.Errorf("listing shipments: %w", err)
	}

	shipments := make([]model.Shipment, 0, len(rows))
	for _, r := range rows {
		var s model.Shipment
		if err := json.Unmarshal([]byte(r.Payload), &s); err != nil {
			return nil, fmt.Errorf("decoding shipment %s: %w", r.ID, err)
		}
		shipments = append(shipments, s)
	}
	return shipments, nil
}

// Snapshot persists the shipment cache to SQLite.
type Snapshot struct {
	db *sqlx.DB
}

// NewSnapshot returns a cache persister backed by db.
func NewSnapshot(db *sqlx.DB) *Snapshot {
	return &Snapshot{db: db}
}

// SaveShipments stores the shipments and marks the snapshot as synced.
func (s *Snapshot) SaveShipments(ctx context.Context, shipments []model.Shipment) error {
	if err := SaveShipments(ctx, s.db, shipments); err != nil {
		return err
	}
	return MarkSynced(ctx, s.db, time.Now())
}

// DeleteShipment removes one stored shipment.
func (s *Snapshot) DeleteShipment(ctx context.Context, id string) error {
	return DeleteShipments(ctx, s.db, id)
}

// LoadShipments returns every stored shipment.
func (s *Snapshot) LoadShipments(ctx context.Context) ([]model.Shipment, error) {
	return LoadShipments(ctx, s.db, "")
}
