package ai

import (
	"strings"
	"testing"

	"github.com/graphview/backend/pkg/common"
)

// wordCounter counts whitespace separated words, close enough for budgeting tests.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func TestRenderGraphContext(t *testing.T) {
	entities := []common.Entity{
		{GUID: "c1", Name: "Button", Type: "component"},
		{GUID: "c2", Name: "Table", Type: "component"},
	}
	relations := []common.Relation{
		{GUID: "r1", Type: "uses", Source: "c1", Target: "c2"},
	}

	t.Run("unlimited", func(t *testing.T) {
		out, truncated := RenderGraphContext(wordCounter{}, entities, relations, 0)
		if truncated {
			t.Fatalf("expected no truncation")
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 5 {
			t.Fatalf("expected 5 lines, got %d: %q", len(lines), out)
		}
		if lines[0] != "Current entities:" || lines[3] != "Current relations:" {
			t.Fatalf("unexpected section headers: %q", lines)
		}
		if !strings.Contains(lines[1], `"guid":"c1"`) {
			t.Fatalf("expected first entity c1, got %q", lines[1])
		}
		if !strings.Contains(lines[4], `"source":"c1"`) {
			t.Fatalf("expected relation line, got %q", lines[4])
		}
	})

	t.Run("budget cuts off", func(t *testing.T) {
		// header costs 3, each single-word JSON line costs 2
		out, truncated := RenderGraphContext(wordCounter{}, entities, relations, 5)
		if !truncated {
			t.Fatalf("expected truncation")
		}
		if strings.Contains(out, `"guid":"c2"`) || strings.Contains(out, "Current relations:") {
			t.Fatalf("expected output to stop after first entity, got %q", out)
		}
		if !strings.Contains(out, `"guid":"c1"`) {
			t.Fatalf("expected first entity to fit, got %q", out)
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		_, truncated := RenderGraphContext(wordCounter{}, nil, nil, 1)
		if truncated {
			t.Fatalf("empty graph must not report truncation")
		}
	})
}
