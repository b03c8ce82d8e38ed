package assembly

import (
	"fmt"
	"strings"

	"github.com/pcathey/trellis/internal/card"
)

// Flatten renders a block sequence into the single context string sent with
// a generation request. Section headers are deterministic and identify each
// block's level and kind, so the same sequence always yields the same bytes.
func Flatten(blocks []card.ContextBlock) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(sectionHeader(b))
		sb.WriteString("\n\n")
		if b.Kind == card.BlockQuote && b.QuoteText != nil {
			sb.WriteString("> ")
			sb.WriteString(*b.QuoteText)
			sb.WriteString("\n\n")
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// sectionHeader names a block by origin, level, and kind.
func sectionHeader(b card.ContextBlock) string {
	switch {
	case b.FromAttachment:
		return fmt.Sprintf("## attachment %s [level %d, %s]", b.SourceID, b.Level, b.Kind)
	case b.Kind == card.BlockVirtual:
		if b.Level >= 0 {
			return fmt.Sprintf("## related %s [virtual, level %d]", b.SourceID, b.Level)
		}
		return fmt.Sprintf("## related %s [virtual]", b.SourceID)
	case b.Level == 0:
		return fmt.Sprintf("## parent %s [%s]", b.SourceID, b.Kind)
	default:
		return fmt.Sprintf("## ancestor %s [level %d, %s]", b.SourceID, b.Level, b.Kind)
	}
}
