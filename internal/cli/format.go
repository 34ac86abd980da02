package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PrintTopics lists topics as a numbered menu.
func PrintTopics(w io.Writer, summary string, topics []chat.SuggestedTopic) {
	fmt.Fprintf(w, "\nStructure of the reference:\n  %s\n\nSuggested topics:\n", summary)
	for i, t := range topics {
		fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, t.Title, t.Rationale)
	}
}

// StructureMenu returns the catalog followed by Original, in menu order.
func StructureMenu() []structure.Template {
	return append(structure.All(), structure.Template{
		ID:      structure.Original,
		Name:    "Keep Original",
		Summary: "Reuse the structure analysed from the reference.",
	})
}

// PrintStructures lists the structure menu.
func PrintStructures(w io.Writer, menu []structure.Template) {
	fmt.Fprintln(w, "\nNarrative structures:")
	for i, t := range menu {
		fmt.Fprintf(w, "  %d. %-24s %s\n", i+1, t.Name, t.Summary)
	}
}

// PrintScript prints the script between rules.
func PrintScript(w io.Writer, script string) {
	rule := strings.Repeat("─", 60)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, script, rule)
}

// SceneLine renders one scene's status for the storyboard view.
func SceneLine(sc storyboard.Scene) string {
	status := "pending"
	switch {
	case sc.IsGenerating:
		status = "generating..."
	case sc.ImageFailed && sc.ImageURL != "":
		status = "failed (placeholder) " + sc.ImageURL
	case sc.ImageFailed:
		status = "failed"
	case sc.ImageURL != "":
		status = imageLabel(sc.ImageURL)
	}
	return fmt.Sprintf("Scene %3d  %s\n           %s", sc.SceneNumber, sc.Description, status)
}

// imageLabel shortens inline data URLs, which can be megabytes long.
func imageLabel(url string) string {
	if strings.HasPrefix(url, "data:") {
		if i := strings.Index(url, ";"); i > 0 {
			return fmt.Sprintf("inline %s image (%d bytes)", url[len("data:"):i], len(url))
		}
		return "inline image"
	}
	return url
}
