package db

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mailtrace/internal/interactions"
)

// InsertInteractions upserts raw records by message id in one transaction and
// returns how many rows were written. Datetimes are stored as given so that a
// later cleaning pass sees exactly what was imported.
func (d *DB) InsertInteractions(raws []interactions.RawRecord) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO interactions (message_id, sender_id, recipient_ids, datetime, subject, body, topics, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			sender_id = excluded.sender_id,
			recipient_ids = excluded.recipient_ids,
			datetime = excluded.datetime,
			subject = excluded.subject,
			body = excluded.body,
			topics = excluded.topics,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	var ftsDel, ftsIns *sql.Stmt
	if d.fts {
		if ftsDel, err = tx.Prepare(`DELETE FROM interactions_fts WHERE message_id = ?`); err != nil {
			return 0, fmt.Errorf("preparing search index: %w", err)
		}
		defer ftsDel.Close()
		if ftsIns, err = tx.Prepare(`INSERT INTO interactions_fts (message_id, subject, body) VALUES (?, ?, ?)`); err != nil {
			return 0, fmt.Errorf("preparing search index: %w", err)
		}
		defer ftsIns.Close()
	}

	now := time.Now().UnixMilli()
	for _, r := range raws {
		if r.MessageID == "" {
			return 0, errors.New("record without message id")
		}
		recipients, err := json.Marshal(r.RecipientIDs)
		if err != nil {
			return 0, fmt.Errorf("encoding recipients of %s: %w", r.MessageID, err)
		}
		dt, err := json.Marshal(r.Datetime)
		if err != nil {
			return 0, fmt.Errorf("encoding datetime of %s: %w", r.MessageID, err)
		}
		if _, err := stmt.Exec(
			string(r.MessageID), string(r.SenderID), string(recipients), string(dt),
			r.Subject, r.Body, topicsToBytes(r.Topics), now,
		); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", r.MessageID, err)
		}
		if d.fts {
			if _, err := ftsDel.Exec(string(r.MessageID)); err != nil {
				return 0, fmt.Errorf("indexing %s: %w", r.MessageID, err)
			}
			if _, err := ftsIns.Exec(string(r.MessageID), r.Subject, r.Body); err != nil {
				return 0, fmt.Errorf("indexing %s: %w", r.MessageID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(raws), nil
}

// AllInteractions returns every stored record ordered by message id
func (d *DB) AllInteractions() ([]interactions.RawRecord, error) {
	rows, err := d.conn.Query(`
		SELECT message_id, sender_id, recipient_ids, datetime, subject, body, topics
		FROM interactions ORDER BY message_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raws []interactions.RawRecord
	for rows.Next() {
		var (
			r              interactions.RawRecord
			id, sender     string
			recipients, dt string
			topics         []byte
		)
		if err := rows.Scan(&id, &sender, &recipients, &dt, &r.Subject, &r.Body, &topics); err != nil {
			return nil, err
		}
		r.MessageID = interactions.ID(id)
		r.SenderID = interactions.ID(sender)
		if err := json.Unmarshal([]byte(recipients), &r.RecipientIDs); err != nil {
			return nil, fmt.Errorf("decoding recipients of %s: %w", id, err)
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(dt)))
		dec.UseNumber()
		if err := dec.Decode(&r.Datetime); err != nil {
			return nil, fmt.Errorf("decoding datetime of %s: %w", id, err)
		}
		r.Topics = bytesToTopics(topics)
		raws = append(raws, r)
	}
	return raws, rows.Err()
}

// CountInteractions returns the number of stored records
func (d *DB) CountInteractions() (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM interactions").Scan(&count)
	return count, err
}
