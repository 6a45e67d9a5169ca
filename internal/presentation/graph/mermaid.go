package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbiter/pkg/fsm"
)

// Overlay marks states of a run on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// GenerateMermaid renders a described state machine as a Mermaid flowchart.
// Shapes follow the role of each state:
//   - initial: ((circle))
//   - terminal: ([stadium])
//   - with an action: [rectangle]
//   - without an action: (rounded)
//
// Guarded edges carry their label. The order of the edges leaving a state is
// the order in which their guards are evaluated.
func GenerateMermaid(states []fsm.StateInfo, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range states {
		id := sanitizeMermaidID(s.Name)

		opener, closer := "(", ")"
		switch {
		case s.Initial:
			opener, closer = "((", "))"
		case s.Terminal:
			opener, closer = "([", "])"
		case s.Action:
			opener, closer = "[", "]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(s.Name), closer)

		for i, e := range s.Edges {
			to := sanitizeMermaidID(e.To)
			if e.Label == "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", id, to)
				continue
			}
			label := escape(e.Label)
			if len(s.Edges) > 1 {
				label = fmt.Sprintf("%d. %s", i+1, label)
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, label, to)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Visited {
			id := sanitizeMermaidID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id)
}
