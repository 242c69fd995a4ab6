package interactions

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ID is an identifier that may arrive as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// RawRecord is an interaction as it arrives from a corpus, before cleaning.
type RawRecord struct {
	MessageID    ID        `json:"message_id"`
	SenderID     ID        `json:"sender_id"`
	RecipientIDs []ID      `json:"recipient_ids"`
	Datetime     any       `json:"datetime"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Topics       []float64 `json:"topics,omitempty"`
}

// Interaction is a cleaned record. After decomposition it has exactly one
// recipient and MessageID may differ from OriginalMessageID.
type Interaction struct {
	MessageID         string    `json:"message_id"`
	OriginalMessageID string    `json:"original_message_id"`
	SenderID          string    `json:"sender_id"`
	RecipientIDs      []string  `json:"recipient_ids"`
	Datetime          time.Time `json:"datetime"`
	Timestamp         float64   `json:"timestamp"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Peers             []string  `json:"peers"`
	Topics            []float64 `json:"topics,omitempty"`
}

// Document is the text a topic model sees.
func (i *Interaction) Document() string {
	return i.Subject + " " + i.Body
}

// PeerIDs lists the sibling instances decomposed from the same message.
func (i *Interaction) PeerIDs() []string {
	return i.Peers
}

// OriginalID is the id of the message this instance was decomposed from.
func (i *Interaction) OriginalID() string {
	return i.OriginalMessageID
}

func (i Interaction) clone() Interaction {
	c := i
	c.RecipientIDs = append([]string(nil), i.RecipientIDs...)
	c.Peers = append([]string(nil), i.Peers...)
	if i.Topics != nil {
		c.Topics = append([]float64(nil), i.Topics...)
	}
	return c
}

// ReadJSON decodes records from either a JSON array or JSON lines.
func ReadJSON(r io.Reader) ([]RawRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()
	if first == '[' {
		var recs []RawRecord
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		return recs, nil
	}

	var recs []RawRecord
	for line := 1; ; line++ {
		var rec RawRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !strings.ContainsRune(" \t\r\n", rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
