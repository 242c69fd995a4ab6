package db

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
	"re": true, "fw": true, "fwd": true,
}

// BuildFTSQuery preprocesses a natural language query for FTS5.
// Splits on whitespace, removes stopwords and words < 3 chars, trims punctuation,
// quotes every term and joins with " OR ".
func BuildFTSQuery(query string) string {
	words := strings.Fields(query)
	var filtered []string
	for _, w := range words {
		// Trim non-letter/digit chars from both ends
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len([]rune(trimmed)) < 3 {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		filtered = append(filtered, `"`+strings.ReplaceAll(trimmed, `"`, `""`)+`"`)
	}
	return strings.Join(filtered, " OR ")
}

// SearchHit is one interaction matching a text search
type SearchHit struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Subject   string `json:"subject"`
}

// SearchInteractions performs FTS5 search over subjects and bodies, best match
// first. Returns an empty slice if the preprocessed query is empty or if the
// FTS table doesn't exist.
func (d *DB) SearchInteractions(query string, limit int) ([]SearchHit, error) {
	ftsQuery := BuildFTSQuery(query)
	if ftsQuery == "" {
		return []SearchHit{}, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.conn.Query(`
		SELECT i.message_id, i.sender_id, i.subject
		FROM interactions_fts fts
		JOIN interactions i ON i.message_id = fts.message_id
		WHERE interactions_fts MATCH ?1
		ORDER BY rank
		LIMIT ?2
	`, ftsQuery, limit)
	if err != nil {
		// Gracefully handle missing FTS table
		if strings.Contains(err.Error(), "no such table") {
			return []SearchHit{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	hits := []SearchHit{}
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.MessageID, &h.SenderID, &h.Subject); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
