package db

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrAmbiguous = errors.New("event reference matches more than one event")
)

const eventColumns = `id, root_id, reward, cost, budget, size, label, created_at`

// scanEvent scans a row into an Event. The row must have eventColumns in order.
func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var e Event
	err := scanner.Scan(&e.ID, &e.RootID, &e.Reward, &e.Cost, &e.Budget, &e.Size, &e.Label, &e.CreatedAt)
	return e, err
}

// ListEvents returns the most recent events first. limit <= 0 returns all.
func (d *DB) ListEvents(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent returns a single event by ID or unique ID prefix.
func (d *DB) GetEvent(ref string) (*Event, error) {
	rows, err := d.conn.Query(`SELECT `+eventColumns+` FROM events WHERE id LIKE ? LIMIT 2`, likePrefix(ref))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// EventNodes returns the members of an event breadth first from its root.
func (d *DB) EventNodes(eventID string) ([]EventNode, error) {
	rows, err := d.conn.Query(`
		SELECT event_id, position, node_id, parent_id, message_id, edge_cost
		FROM event_nodes WHERE event_id = ? ORDER BY position
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []EventNode
	for rows.Next() {
		var n EventNode
		if err := rows.Scan(&n.EventID, &n.Position, &n.NodeID, &n.ParentID, &n.MessageID, &n.EdgeCost); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// likePrefix builds a LIKE pattern matching ids that start with s. Wildcards
// in s are dropped; ids never contain them.
func likePrefix(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s) + "%"
}
