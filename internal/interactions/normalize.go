package interactions

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Clean deduplicates recipients and parses datetimes. Records whose datetime
// cannot be parsed are dropped with a warning. The result shares no memory with
// raws.
func Clean(logger *log.Logger, raws []RawRecord) []Interaction {
	out := make([]Interaction, 0, len(raws))
	for _, r := range raws {
		dt, err := ParseDatetime(r.Datetime)
		if err != nil {
			logger.Warn("dropping interaction with bad datetime",
				"message_id", string(r.MessageID), "datetime", r.Datetime, "err", err)
			continue
		}

		seen := make(map[ID]bool, len(r.RecipientIDs))
		recipients := make([]string, 0, len(r.RecipientIDs))
		for _, rec := range r.RecipientIDs {
			if !seen[rec] {
				seen[rec] = true
				recipients = append(recipients, string(rec))
			}
		}

		var topics []float64
		if r.Topics != nil {
			topics = append([]float64(nil), r.Topics...)
		}

		out = append(out, Interaction{
			MessageID:         string(r.MessageID),
			OriginalMessageID: string(r.MessageID),
			SenderID:          string(r.SenderID),
			RecipientIDs:      recipients,
			Datetime:          dt,
			Timestamp:         Timestamp(dt),
			Subject:           r.Subject,
			Body:              r.Body,
			Topics:            topics,
		})
	}
	return out
}

// Decompose splits every multi-recipient interaction into one instance per
// recipient, identified as "<message id>.<recipient>". Each instance lists the
// other instances of its message as peers. Single-recipient interactions pass
// through with no peers.
func Decompose(ints []Interaction) []Interaction {
	var out []Interaction
	for _, in := range ints {
		if len(in.RecipientIDs) <= 1 {
			c := in.clone()
			c.OriginalMessageID = in.MessageID
			c.Peers = []string{}
			out = append(out, c)
			continue
		}

		peers := make([]string, len(in.RecipientIDs))
		for i, rec := range in.RecipientIDs {
			peers[i] = in.MessageID + "." + rec
		}
		for i, rec := range in.RecipientIDs {
			c := in.clone()
			c.MessageID = peers[i]
			c.OriginalMessageID = in.MessageID
			c.RecipientIDs = []string{rec}
			c.Peers = make([]string, 0, len(peers)-1)
			c.Peers = append(c.Peers, peers[:i]...)
			c.Peers = append(c.Peers, peers[i+1:]...)
			out = append(out, c)
		}
	}
	return out
}

// Columns is the column-wise view of time-sorted interactions handed to a
// meta-graph constructor.
type Columns struct {
	IDs        []string
	Senders    []string
	Recipients [][]string
	Timestamps []float64
}

// Len returns the number of interactions.
func (c Columns) Len() int { return len(c.IDs) }

// SortByTime returns a copy of ints sorted ascending by datetime. Equal
// datetimes keep their input order.
func SortByTime(ints []Interaction) []Interaction {
	sorted := make([]Interaction, len(ints))
	copy(sorted, ints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})
	return sorted
}

// Unzip sorts ints by time and splits them into parallel columns.
func Unzip(ints []Interaction) ([]Interaction, Columns) {
	sorted := SortByTime(ints)
	cols := Columns{
		IDs:        make([]string, len(sorted)),
		Senders:    make([]string, len(sorted)),
		Recipients: make([][]string, len(sorted)),
		Timestamps: make([]float64, len(sorted)),
	}
	for i, in := range sorted {
		cols.IDs[i] = in.MessageID
		cols.Senders[i] = in.SenderID
		cols.Recipients[i] = in.RecipientIDs
		cols.Timestamps[i] = in.Timestamp
	}
	return sorted, cols
}
