package metagraph

import (
	"mailtrace/internal/graph"
	"mailtrace/internal/interactions"
)

// ParticipantLinker links interaction u to a later interaction v when v's
// sender already took part in u: either as u's sender (a follow-up) or as one
// of u's recipients (a reply or a forward). Interactions sharing a timestamp
// are never linked.
type ParticipantLinker struct{}

func (ParticipantLinker) Build(cols interactions.Columns, window *float64) (*graph.Graph, error) {
	g := graph.New()
	for _, id := range cols.IDs {
		g.AddNode(&graph.Node{ID: id})
	}

	// sender -> indices of interactions that sender took part in, in time order
	involved := make(map[string][]int)
	for i := range cols.IDs {
		seen := map[string]bool{cols.Senders[i]: true}
		involved[cols.Senders[i]] = append(involved[cols.Senders[i]], i)
		for _, r := range cols.Recipients[i] {
			if !seen[r] {
				seen[r] = true
				involved[r] = append(involved[r], i)
			}
		}
	}

	for j := range cols.IDs {
		tj := cols.Timestamps[j]
		for _, i := range involved[cols.Senders[j]] {
			if i >= j {
				break
			}
			ti := cols.Timestamps[i]
			if ti >= tj {
				continue
			}
			if window != nil && tj-ti > *window {
				continue
			}
			if err := g.Connect(cols.IDs[i], cols.IDs[j]); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
