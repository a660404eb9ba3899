package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/aretw0/toolguide/internal/presentation/graph"
	"github.com/aretw0/toolguide/pkg/domain"
)

// ListSessions prints every stored session as a table.
func ListSessions(ctx context.Context, rt *Runtime, w io.Writer) error {
	ids, err := rt.Engine.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGUIDE\tSTATE\tSTEPS\tUPDATED")
	for _, id := range ids {
		s, err := rt.Engine.Session(ctx, id)
		if err != nil {
			rt.Logger.Warn("Skipping unreadable session", "session_id", id, "err", err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Guide, s.State, len(s.Steps), s.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// InspectSession prints the raw session as indented JSON.
func InspectSession(ctx context.Context, rt *Runtime, w io.Writer, sessionID string) error {
	s, err := rt.Engine.Session(ctx, sessionID)
	if err != nil {
		return sessionError(sessionID, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RemoveSession deletes a session regardless of its guide.
func RemoveSession(ctx context.Context, rt *Runtime, w io.Writer, sessionID string) error {
	if _, err := rt.Engine.Session(ctx, sessionID); err != nil {
		return sessionError(sessionID, err)
	}
	if err := rt.Engine.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	printSystemMessage(w, "Session '%s' removed.", sessionID)
	return nil
}

// PrintGraph writes the Mermaid diagram of a guide, highlighting the path
// of sessionID when given.
func PrintGraph(ctx context.Context, rt *Runtime, w io.Writer, guideName, sessionID string) error {
	g, err := rt.Engine.Guide(guideName)
	if err != nil {
		return err
	}
	var overlay *graph.GraphOverlay
	if sessionID != "" {
		s, err := rt.Engine.Session(ctx, sessionID)
		if err != nil {
			return sessionError(sessionID, err)
		}
		if s.Guide != g.Name {
			return fmt.Errorf("session %s belongs to guide %s, not %s", sessionID, s.Guide, g.Name)
		}
		overlay = graph.OverlayFor(g, s)
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
	return err
}

func sessionError(sessionID string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return fmt.Errorf("failed to load session %s: %w", sessionID, err)
}
