package db

// Event represents a row in the events table
type Event struct {
	ID        string  `json:"id"`
	RootID    string  `json:"root_id"`
	Reward    int     `json:"reward"`
	Cost      float64 `json:"cost"`   // original units
	Budget    float64 `json:"budget"` // original units
	Size      int     `json:"size"`
	Label     *string `json:"label"`
	CreatedAt int64   `json:"created_at"` // Unix millis
}

// EventNode represents one member of a stored event tree
type EventNode struct {
	EventID   string   `json:"event_id"`
	Position  int      `json:"position"` // breadth-first from the root
	NodeID    string   `json:"node_id"`
	ParentID  *string  `json:"parent_id"`
	MessageID string   `json:"message_id"` // message the node was decomposed from
	EdgeCost  *float64 `json:"edge_cost"`  // cost of the edge from the parent
}
