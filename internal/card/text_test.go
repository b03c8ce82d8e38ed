package card

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCountChars_MultiByte(t *testing.T) {
	if got := CountChars("héllo"); got != 5 {
		t.Errorf("CountChars = %d, want 5", got)
	}
	if got := CountChars(""); got != 0 {
		t.Errorf("CountChars empty = %d, want 0", got)
	}
}

func TestTruncate_ShortTextUnchanged(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate = %q, want unchanged", got)
	}
}

func TestTruncate_CutsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 200)
	got := Truncate(text, 50)

	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("Truncate should end with ellipsis, got %q", got)
	}
	if CountChars(got) > 50+len(Ellipsis) {
		t.Errorf("Truncate too long: %d runes", CountChars(got))
	}
	if strings.Contains(strings.TrimSuffix(got, Ellipsis), "wor"+Ellipsis) {
		t.Errorf("Truncate split a word: %q", got)
	}
}

func TestTruncate_NeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 100)
	got := Truncate(text, 37)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
}

func TestHasQuote(t *testing.T) {
	quote := "fragment"
	src := "01ABC"
	empty := ""

	c := &Card{Quote: &quote, QuoteSourceID: &src}
	if !c.HasQuote() {
		t.Error("HasQuote should be true with quote and source")
	}

	c = &Card{Quote: &quote}
	if c.HasQuote() {
		t.Error("HasQuote should be false without source id")
	}

	c = &Card{Quote: &empty, QuoteSourceID: &src}
	if c.HasQuote() {
		t.Error("HasQuote should be false with empty quote")
	}
}
