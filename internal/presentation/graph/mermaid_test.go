package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/arbiter/internal/presentation/graph"
	"github.com/aretw0/arbiter/pkg/fsm"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		states   []fsm.StateInfo
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			states: []fsm.StateInfo{
				{Name: "start", Initial: true, Action: true},
				{Name: "play", Action: true},
				{Name: "wait"},
				{Name: "end", Terminal: true},
			},
			contains: []string{
				`start(("start"))`,
				`play["play"]`,
				`wait("wait")`,
				`end(["end"])`,
			},
		},
		{
			name: "Ordered Guards",
			states: []fsm.StateInfo{
				{Name: "round", Edges: []fsm.Edge{
					{To: "final", Label: "last round"},
					{To: "round"},
				}},
			},
			contains: []string{
				`round -- "1. last round" --> final`,
				`round --> round`,
			},
		},
		{
			name: "Single Guard Unnumbered",
			states: []fsm.StateInfo{
				{Name: "a", Edges: []fsm.Edge{{To: "b", Label: "ready"}}},
			},
			contains: []string{`a -- "ready" --> b`},
		},
		{
			name: "Sanitized IDs",
			states: []fsm.StateInfo{
				{Name: "deal cards", Edges: []fsm.Edge{{To: "bid-1", Label: `say "hi"`}}},
			},
			contains: []string{
				`deal_cards("deal cards")`,
				`deal_cards -- "say 'hi'" --> bid_1`,
			},
		},
		{
			name:   "Overlay",
			states: []fsm.StateInfo{{Name: "a"}, {Name: "b"}},
			overlay: &graph.Overlay{
				Visited: []string{"a", "a", "b"},
				Current: "b",
			},
			contains: []string{
				"classDef visited",
				"class a visited;",
				"class b current;",
			},
		},
		{
			name:     "No Overlay",
			states:   []fsm.StateInfo{{Name: "a"}},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.states, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(got, "class a visited;"))
			}
		})
	}
}

func TestGenerateMermaid_FromDefinition(t *testing.T) {
	def := fsm.New[string, struct{}]("A").
		State("A").Do(func(_ context.Context, _ struct{}) error { return nil }).Go("B").
		State("B").If("again", func(struct{}) bool { return false }, "A").Go("C").
		MustBuild()

	got := graph.GenerateMermaid(def.Describe(), nil)
	assert.Contains(t, got, `A(("A"))`)
	assert.Contains(t, got, `B -- "1. again" --> A`)
	assert.Contains(t, got, `B --> C`)
	assert.Contains(t, got, `C(["C"])`)
}
