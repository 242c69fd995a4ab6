package topics

import (
	"fmt"
	"hash/fnv"
	"math"

	"mailtrace/internal/graph"
)

// Model infers a topic vector for a tokenised document.
type Model interface {
	Infer(tokens []string) ([]float64, error)
}

// Tokenizer splits a document into model tokens.
type Tokenizer interface {
	Tokenize(doc string) []string
}

// HashingModel folds token counts into Dim buckets and normalises them to sum
// to one. Empty documents get the uniform vector.
type HashingModel struct {
	Dim int
}

func (m HashingModel) Infer(tokens []string) ([]float64, error) {
	if m.Dim <= 0 {
		return nil, fmt.Errorf("hashing model dimension must be positive, got %d", m.Dim)
	}
	v := make([]float64, m.Dim)
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[h.Sum32()%uint32(m.Dim)]++
	}
	total := float64(len(tokens))
	if total == 0 {
		for i := range v {
			v[i] = 1 / float64(m.Dim)
		}
		return v, nil
	}
	for i := range v {
		v[i] /= total
	}
	return v, nil
}

type document interface {
	Document() string
}

type peered interface {
	PeerIDs() []string
}

// Assign infers topics for every node that has none and whose payload carries a
// document. Decomposed instances of one message share text, so a vector
// inferred for one instance is reused for its peers. Returns the number of
// model calls made.
func Assign(g *graph.Graph, tok Tokenizer, model Model) (int, error) {
	calls := 0
	for _, n := range g.Nodes() {
		if n.Topics != nil {
			continue
		}
		doc, ok := n.Payload.(document)
		if !ok {
			continue
		}
		v, err := model.Infer(tok.Tokenize(doc.Document()))
		if err != nil {
			return calls, fmt.Errorf("inferring topics for %s: %w", n.ID, err)
		}
		if hasNaN(v) {
			return calls, fmt.Errorf("inferring topics for %s: model returned NaN", n.ID)
		}
		calls++
		n.Topics = v

		if p, ok := n.Payload.(peered); ok {
			for _, id := range p.PeerIDs() {
				if peer := g.Node(id); peer != nil && peer.Topics == nil {
					peer.Topics = append([]float64(nil), v...)
				}
			}
		}
	}
	return calls, nil
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
