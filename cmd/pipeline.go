package cmd

import (
	"fmt"

	"mailtrace/internal/db"
	"mailtrace/internal/graph"
	"mailtrace/internal/interactions"
	"mailtrace/internal/metagraph"
	"mailtrace/internal/topics"
)

// loadGraph builds the priced meta-graph from every stored interaction.
func loadGraph(d *db.DB) (*graph.Graph, error) {
	raws, err := d.AllInteractions()
	if err != nil {
		return nil, fmt.Errorf("loading interactions: %w", err)
	}

	window, err := optionalSeconds(cfg.Graph.Window)
	if err != nil {
		return nil, fmt.Errorf("graph window: %w", err)
	}
	b := &metagraph.Builder{
		Constructor:      metagraph.ParticipantLinker{},
		Logger:           logger,
		Decompose:        cfg.Graph.Decompose,
		RemoveSingletons: cfg.Graph.RemoveSingletons,
		Window:           window,
	}
	g, err := b.Build(raws)
	if err != nil {
		return nil, err
	}

	span, err := optionalSeconds(cfg.Graph.PrepruneSpan)
	if err != nil {
		return nil, fmt.Errorf("preprune span: %w", err)
	}
	if span != nil {
		before := g.NumEdges()
		g = graph.PrepruneEdges(g, *span)
		if cfg.Graph.RemoveSingletons {
			g = graph.RemoveIsolated(g)
		}
		logger.Debug("pruned long edges", "span_secs", *span, "removed", before-g.NumEdges())
	}

	tok, err := interactions.NewTokenizer(cfg.Text.Stopwords, cfg.Text.TokenPattern, cfg.Text.MinTokenLen, cfg.Text.MaxTokenLen)
	if err != nil {
		return nil, fmt.Errorf("building tokenizer: %w", err)
	}
	calls, err := topics.Assign(g, tok, topics.HashingModel{Dim: cfg.Topics.Dim})
	if err != nil {
		return nil, err
	}

	dist, err := graph.DistanceByName(cfg.Graph.Distance)
	if err != nil {
		return nil, err
	}
	priced, err := graph.AssignEdgeCosts(g, dist)
	if err != nil {
		return nil, err
	}
	logger.Info("meta-graph ready",
		"interactions", len(raws), "nodes", g.NumNodes(), "edges", g.NumEdges(),
		"inferred_topics", calls, "priced_edges", priced)
	return g, nil
}

// optionalSeconds parses a "<n>-<unit>" span; empty means unbounded.
func optionalSeconds(span string) (*float64, error) {
	if span == "" {
		return nil, nil
	}
	d, err := interactions.ParseTimeDelta(span)
	if err != nil {
		return nil, err
	}
	secs := d.Seconds()
	return &secs, nil
}
