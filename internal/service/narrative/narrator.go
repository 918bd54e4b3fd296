// Package narrative turns qualified signals into desk-ready alert text,
// either through a deterministic template or an LLM summarizer.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"StructBreak/internal/domain/models"
)

// Prompt renders the analyst briefing for a signal. It doubles as the raw
// alert text when no LLM is configured.
func Prompt(sig models.QualifiedSignal, regime models.RegimeState) string {
	var b strings.Builder
	b.WriteString("ACT AS: Senior proprietary trader.\n")
	b.WriteString("TASK: Summarize this technical breakout for the internal desk.\n")
	b.WriteString("STYLE: Clinical, data-driven, no hype.\n\n")
	b.WriteString("DATA:\n")
	fmt.Fprintf(&b, "- Ticker: %s\n", sig.Symbol)
	b.WriteString("- Setup: Breakout from volatility compression\n")
	fmt.Fprintf(&b, "- Key Level: %.2f (tested %d times)\n", sig.Level, sig.Touches)
	fmt.Fprintf(&b, "- Extension: price is %.2fx ATR above the level\n", sig.ATRExtension)
	fmt.Fprintf(&b, "- Volume: %.2fx vs 20-day average\n", sig.VolExpansion)
	fmt.Fprintf(&b, "- Compression Score: %.2f (higher is a tighter coil)\n", sig.CompressionScore)
	fmt.Fprintf(&b, "- Overhead Supply: %s\n", sig.NextResistance)
	fmt.Fprintf(&b, "- Market Environment: %s\n\n", regime.Status)
	b.WriteString("OUTPUT TEMPLATE:\n")
	fmt.Fprintf(&b, "🚨 **STRUCTURE BREAK: %s**\n\n", sig.Symbol)
	b.WriteString("**The Setup**\n[1 sentence on the compression/coil context]\n\n")
	b.WriteString("**The Trigger**\n[1 sentence on the volume and extension strength]\n\n")
	b.WriteString("**Context**\n[Comment on resistance clearance and market regime]\n\n")
	b.WriteString("*Quality Score: [0-10 based on metrics]*\n")
	return b.String()
}

// Template is a Narrator that skips the LLM and emits the briefing verbatim.
type Template struct{}

// Narrate returns the raw briefing text.
func (Template) Narrate(_ context.Context, sig models.QualifiedSignal, regime models.RegimeState) (string, error) {
	return Prompt(sig, regime), nil
}
