package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"mailtrace/internal/events"
	"mailtrace/internal/interactions"
	"mailtrace/internal/lst"
)

type eventJSON struct {
	Root   string          `json:"root"`
	Reward int             `json:"reward"`
	Cost   float64         `json:"cost"`
	Budget float64         `json:"budget"`
	Nodes  []eventNodeJSON `json:"nodes"`
}

type eventNodeJSON struct {
	ID        string    `json:"id"`
	Parent    string    `json:"parent,omitempty"`
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Datetime  time.Time `json:"datetime"`
	Subject   string    `json:"subject"`
	EdgeCost  *float64  `json:"edge_cost,omitempty"`
}

func toJSON(c *events.Candidate) eventJSON {
	res := c.Result
	out := eventJSON{
		Root:   c.Root,
		Reward: c.Tree.Reward(),
		Cost:   c.Tree.Cost(),
		Budget: float64(res.Budget) / float64(res.Scale),
	}
	for _, id := range c.Tree.NodeIDs() {
		n := c.Tree.Node(id)
		row := eventNodeJSON{ID: id, Parent: c.Tree.Parent(id), MessageID: id, Sender: n.Sender, Recipient: n.Recipient}
		if in, ok := n.Payload.(*interactions.Interaction); ok {
			row.MessageID = in.OriginalMessageID
			row.Datetime = in.Datetime
			row.Subject = in.Subject
		}
		if row.Parent != "" {
			cost := c.Tree.Edge(row.Parent, id).Cost
			row.EdgeCost = &cost
		}
		out.Nodes = append(out.Nodes, row)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTree renders t depth first with an explicit stack.
func printTree(w io.Writer, t *lst.Tree) {
	type frame struct {
		id    string
		depth int
	}
	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Node(f.id)
		line := fmt.Sprintf("%s%s  %s → %s", strings.Repeat("  ", f.depth+1), f.id, n.Sender, n.Recipient)
		if in, ok := n.Payload.(*interactions.Interaction); ok {
			line += fmt.Sprintf("  %s  %s", in.Datetime.Format("2006-01-02 15:04"), truncTitle(in.Subject, 40))
		}
		if p := t.Parent(f.id); p != "" {
			line += fmt.Sprintf("  (+%.3f)", t.Edge(p, f.id).Cost)
		}
		fmt.Fprintln(w, line)

		kids := t.Children(f.id)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
}

func printCandidate(w io.Writer, c *events.Candidate) {
	fmt.Fprintf(w, "\n  EVENT rooted at %s: %d interactions, reward %d, cost %.3f\n",
		c.Root, c.Tree.Len(), c.Tree.Reward(), c.Tree.Cost())
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	printTree(w, c.Tree)
}
