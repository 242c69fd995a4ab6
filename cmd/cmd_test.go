package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailtrace/internal/config"
	"mailtrace/internal/db"
	"mailtrace/internal/events"
	"mailtrace/internal/interactions"
	"mailtrace/internal/logging"
)

func setupCmdTest(t *testing.T) *db.DB {
	t.Helper()
	cfg = config.Default()
	logger = logging.Discard()
	d, err := db.OpenDB(filepath.Join(t.TempDir(), dbFileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	raws := []interactions.RawRecord{
		{MessageID: "m1", SenderID: "alice", RecipientIDs: []interactions.ID{"bob", "carol"},
			Datetime: "2001-05-14 10:00:00", Subject: "budget review", Body: "quarterly budget numbers"},
		{MessageID: "m2", SenderID: "bob", RecipientIDs: []interactions.ID{"alice"},
			Datetime: "2001-05-14 11:00:00", Subject: "re budget review", Body: "budget numbers look fine"},
		{MessageID: "m3", SenderID: "carol", RecipientIDs: []interactions.ID{"dave"},
			Datetime: "2001-05-14 12:00:00", Subject: "forwarded", Body: "see quarterly budget"},
		{MessageID: "m4", SenderID: "xavier", RecipientIDs: []interactions.ID{"yves"},
			Datetime: "2001-05-14 13:00:00", Subject: "lunch", Body: "noon?"},
	}
	if _, err := d.InsertInteractions(raws); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestLoadGraph(t *testing.T) {
	d := setupCmdTest(t)
	g, err := loadGraph(d)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"m1.bob", "m1.carol", "m2", "m3"}
	if got := g.SortedNodeIDs(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("nodes: got %v, want %v", got, want)
	}
	if g.Edge("m1.bob", "m2") == nil || g.Edge("m1.carol", "m3") == nil {
		t.Fatalf("missing reply/forward edges: %v", g.Edges())
	}
	for _, e := range g.Edges() {
		if !e.Priced || e.Cost < 0 || e.Cost > 1 {
			t.Errorf("edge %s -> %s: priced=%v cost=%v", e.Source, e.Target, e.Priced, e.Cost)
		}
	}
	for _, n := range g.Nodes() {
		if len(n.Topics) != cfg.Topics.Dim {
			t.Errorf("%s has %d topics, want %d", n.ID, len(n.Topics), cfg.Topics.Dim)
		}
	}

	p, err := extractParams(extractCmd)
	if err != nil {
		t.Fatal(err)
	}
	cands, err := events.Candidates(context.Background(), g, []string{"m1.bob", "m2"}, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected one candidate (m2 has no follow-up), got %d", len(cands))
	}
	if ids := cands[0].Tree.NodeIDs(); len(ids) != 2 || ids[1] != "m2" {
		t.Errorf("tree: got %v", ids)
	}

	var buf bytes.Buffer
	printCandidate(&buf, cands[0])
	out := buf.String()
	if !strings.Contains(out, "m1.bob  alice → bob") || !strings.Contains(out, "    m2  bob → alice") {
		t.Errorf("unexpected rendering:\n%s", out)
	}

	doc := toJSON(cands[0])
	if doc.Nodes[0].MessageID != "m1" || doc.Nodes[0].EdgeCost != nil || doc.Nodes[1].Parent != "m1.bob" {
		t.Errorf("unexpected json rows: %+v", doc.Nodes)
	}
}

func TestLoadGraph_PrepruneSpan(t *testing.T) {
	d := setupCmdTest(t)
	cfg.Graph.PrepruneSpan = "90-minutes"

	g, err := loadGraph(d)
	if err != nil {
		t.Fatal(err)
	}
	// m1.carol -> m3 spans two hours; both ends become isolated and are dropped.
	want := []string{"m1.bob", "m2"}
	if got := g.SortedNodeIDs(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("nodes: got %v, want %v", got, want)
	}
	if g.NumEdges() != 1 || g.Edge("m1.bob", "m2") == nil {
		t.Errorf("edges: got %v", g.Edges())
	}

	cfg.Graph.PrepruneSpan = "soon"
	if _, err := loadGraph(d); err == nil {
		t.Error("expected error for malformed preprune span")
	}
}

func TestResolveRoot(t *testing.T) {
	d := setupCmdTest(t)
	g, err := loadGraph(d)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{ref: "m2", want: "m2"},
		{ref: "m1.b", want: "m1.bob"},
		{ref: "m1", wantErr: "ambiguous reference"},
		{ref: "lunch", wantErr: "node not found"},
	}
	for _, tt := range tests {
		got, err := ResolveRoot(d, g, tt.ref)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%s: expected error containing %q, got %v", tt.ref, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.ref, got, tt.want)
		}
	}

	hits, err := d.SearchInteractions("forwarded", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Skip("sqlite build without fts5")
	}
	got, err := ResolveRoot(d, g, "forwarded")
	if err != nil || got != "m3" {
		t.Errorf("text search: got %q, %v", got, err)
	}
}

func TestDiscoverDB(t *testing.T) {
	cfg = config.Default()
	t.Cleanup(func() { dbPath = "" })

	existing := filepath.Join(t.TempDir(), "corpus.db")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "nope.db")

	dbPath = existing
	if got, err := DiscoverDB(false); err != nil || got != existing {
		t.Errorf("flag: got %q, %v", got, err)
	}

	dbPath = missing
	if _, err := DiscoverDB(false); err == nil {
		t.Error("missing flag path should fail without create")
	}
	if got, err := DiscoverDB(true); err != nil || got != missing {
		t.Errorf("create: got %q, %v", got, err)
	}

	t.Setenv(config.EnvPrefix+"DB", existing)
	if got, err := DiscoverDB(false); err != nil || got != existing {
		t.Errorf("env should win over flag: got %q, %v", got, err)
	}
}

func TestOptionalSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		isNil   bool
		wantErr bool
	}{
		{in: "", isNil: true},
		{in: "2-hours", want: 7200},
		{in: "1-week", want: 604800},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := optionalSeconds(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.in, err)
			continue
		}
		if tt.isNil != (got == nil) {
			t.Errorf("%q: nil=%v, want nil=%v", tt.in, got == nil, tt.isNil)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestTruncTitle(t *testing.T) {
	if got := truncTitle("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncTitle("quarterly budget review", 9); got != "quarterly..." {
		t.Errorf("got %q", got)
	}
	if got := truncID("0123456789abcdef"); got != "01234567" {
		t.Errorf("got %q", got)
	}
}
