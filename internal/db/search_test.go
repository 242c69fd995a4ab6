package db

import "testing"

func TestBuildFTSQuery_StopwordRemoval(t *testing.T) {
	got := BuildFTSQuery("Move the budget meeting to a later date")
	want := `"Move" OR "budget" OR "meeting" OR "later" OR "date"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_ShortWords(t *testing.T) {
	got := BuildFTSQuery("go do run fast")
	want := `"run" OR "fast"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_PunctuationTrimming(t *testing.T) {
	got := BuildFTSQuery(`RE: "quarterly-report" (draft.v2),`)
	want := `"quarterly-report" OR "draft.v2"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_AllStopwords(t *testing.T) {
	got := BuildFTSQuery("the a an in on at fwd")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBuildFTSQuery_Empty(t *testing.T) {
	got := BuildFTSQuery("")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestSearchInteractions(t *testing.T) {
	d := setupTestDB(t)
	raws := sampleRecords()
	if _, err := d.InsertInteractions(raws); err != nil {
		t.Fatal(err)
	}
	if !d.fts {
		t.Skip("sqlite build without fts5")
	}

	hits, err := d.SearchInteractions("budget", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}

	hits, err = d.SearchInteractions("the of", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("stopword-only query should match nothing, got %+v", hits)
	}

	// Re-import must not duplicate index rows.
	if _, err := d.InsertInteractions(raws); err != nil {
		t.Fatal(err)
	}
	hits, err = d.SearchInteractions("lunch", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].MessageID != "m3" {
		t.Errorf("expected only m3, got %+v", hits)
	}
}
