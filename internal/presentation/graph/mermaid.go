package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/toolguide/pkg/domain"
)

// GraphOverlay contains dynamic session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []domain.StateName
	CurrentState  domain.StateName
}

// OverlayFor marks the session's current state and the shortest declared
// path that leads to it from the guide's initial state.
func OverlayFor(g *domain.Guide, s *domain.Session) *GraphOverlay {
	return &GraphOverlay{
		VisitedStates: pathTo(g, s.State),
		CurrentState:  s.State,
	}
}

func pathTo(g *domain.Guide, target domain.StateName) []domain.StateName {
	prev := map[domain.StateName]domain.StateName{g.Initial: ""}
	queue := []domain.StateName{g.Initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			break
		}
		for _, t := range g.Transitions {
			if t.From != cur {
				continue
			}
			if _, seen := prev[t.To]; !seen {
				prev[t.To] = cur
				queue = append(queue, t.To)
			}
		}
	}
	if _, ok := prev[target]; !ok {
		return nil
	}
	var path []domain.StateName
	for st := prev[target]; st != ""; st = prev[st] {
		path = append([]domain.StateName{st}, path...)
	}
	return path
}

// GenerateMermaid produces a Mermaid flowchart syntax string for a guide.
// It applies semantic styling:
// - Initial: ((Circle))
// - Terminal (no handler, no outgoing edge): ([Stadium])
// - Interactive (waits for input): [/Parallelogram/]
// Edges that skip ahead in the declared state order are drawn dotted.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g *domain.Guide, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	order := make(map[domain.StateName]int, len(g.States))
	for i, st := range g.States {
		order[st] = i
	}
	outgoing := make(map[domain.StateName]bool)
	for _, t := range g.Transitions {
		outgoing[t.From] = true
	}

	for _, st := range g.States {
		opener, closer := "[", "]"
		_, interactive := g.Handlers[st]
		switch {
		case st == g.Initial:
			opener, closer = "((", "))"
		case interactive:
			opener, closer = "[/", "/]"
		case !outgoing[st]:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(st)), opener, st, closer)
	}

	for _, t := range g.Transitions {
		isJump := order[t.To]-order[t.From] > 1

		arrow := "-->"
		if isJump {
			arrow = "-.->"
		}
		if t.Label != "" {
			// Escape double quotes in the label for Mermaid
			safeLabel := strings.ReplaceAll(t.Label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeLabel)
			if isJump {
				arrow = fmt.Sprintf("-. \"%s\" .->", safeLabel)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(t.From)), arrow, sanitizeMermaidID(string(t.To)))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, st := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(string(st))
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
