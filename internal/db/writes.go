package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailtrace/internal/lst"
)

type originated interface {
	OriginalID() string
}

// SaveEvent stores an extracted tree as a new event and returns its UUID.
// Cost and budget are in original units. label may be empty.
func (d *DB) SaveEvent(tree *lst.Tree, budget float64, label string) (string, error) {
	id := uuid.NewString()

	tx, err := d.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning event save: %w", err)
	}
	defer tx.Rollback()

	var lbl *string
	if label != "" {
		lbl = &label
	}
	if _, err := tx.Exec(
		`INSERT INTO events (id, root_id, reward, cost, budget, size, label, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tree.Root, tree.Reward(), tree.Cost(), budget, tree.Len(), lbl, time.Now().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}

	for pos, nodeID := range tree.NodeIDs() {
		var (
			parent *string
			cost   *float64
		)
		if p := tree.Parent(nodeID); p != "" {
			parent = &p
			c := tree.Edge(p, nodeID).Cost
			cost = &c
		}
		msg := nodeID
		if o, ok := tree.Node(nodeID).Payload.(originated); ok && o.OriginalID() != "" {
			msg = o.OriginalID()
		}
		if _, err := tx.Exec(
			`INSERT INTO event_nodes (event_id, position, node_id, parent_id, message_id, edge_cost) VALUES (?, ?, ?, ?, ?, ?)`,
			id, pos, nodeID, parent, msg, cost,
		); err != nil {
			return "", fmt.Errorf("inserting event node %s: %w", nodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing event: %w", err)
	}
	return id, nil
}

// DeleteEvent removes an event. Its nodes are cascade-deleted by SQLite.
func (d *DB) DeleteEvent(id string) error {
	res, err := d.conn.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
