package chunker_test

import (
	"strings"
	"testing"

	"github.com/saitejashb/context-translation/internal/chunker"
)

func TestSplit_ShortText(t *testing.T) {
	text := "Hello, world!"
	pieces := chunker.Split(text, 100)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0] != text {
		t.Errorf("expected %q, got %q", text, pieces[0])
	}
}

func TestSplit_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	pieces := chunker.Split(text, 0)
	if len(pieces) != 1 {
		t.Errorf("expected 1 piece when maxChars=0, got %d", len(pieces))
	}
}

func TestSplit_ParagraphBoundary(t *testing.T) {
	para1 := "First paragraph text here."
	para2 := "Second paragraph text here."
	text := para1 + "\n\n" + para2

	pieces := chunker.Split(text, 40)
	if len(pieces) < 2 {
		t.Fatalf("expected >=2 pieces, got %d: %v", len(pieces), pieces)
	}
	if !strings.Contains(pieces[0], "First") {
		t.Errorf("first piece should contain 'First': %q", pieces[0])
	}
	if !strings.Contains(pieces[len(pieces)-1], "Second") {
		t.Errorf("last piece should contain 'Second': %q", pieces[len(pieces)-1])
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	pieces := chunker.Split(text, 40)
	if len(pieces) < 2 {
		t.Fatalf("expected >=2 pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if strings.TrimSpace(p) == "" {
			t.Errorf("piece %d is empty", i)
		}
		if p != strings.TrimSpace(p) {
			t.Errorf("piece %d has leading/trailing whitespace: %q", i, p)
		}
	}
}

func TestSplit_WordBoundary(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	pieces := chunker.Split(text, 20)
	if len(pieces) < 2 {
		t.Fatalf("expected >=2 pieces, got %d", len(pieces))
	}
	rejoined := chunker.Join(pieces)
	for _, word := range strings.Fields(text) {
		if !strings.Contains(rejoined, word) {
			t.Errorf("word %q lost after splitting", word)
		}
	}
}

func TestSplit_PiecesRespectLimit(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs. " +
		"How vexingly quick daft zebras jump!"
	pieces := chunker.Split(text, 50)
	for i, p := range pieces {
		if n := len([]rune(p)); n > 50 {
			t.Errorf("piece %d exceeds limit: %d runes (%q)", i, n, p)
		}
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	// Telugu text; byte length far exceeds rune length. Splitting must
	// never cut inside a rune.
	text := strings.Repeat("తెలుగు భాష చాలా అందమైనది. ", 10)
	pieces := chunker.Split(text, 30)
	if len(pieces) < 2 {
		t.Fatalf("expected >=2 pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if !strings.Contains(strings.Repeat(text, 1), p) {
			t.Errorf("piece %d is not a substring of the original: %q", i, p)
		}
	}
}

func TestSplit_HardCutKeepsPlaceholderIntact(t *testing.T) {
	// No whitespace anywhere, so only a hard cut is available; the cut
	// must back up rather than land inside the token.
	text := "abcdefgh[GT12]ijkl"
	pieces := chunker.Split(text, 12)

	found := false
	for i, p := range pieces {
		if strings.Contains(p, "[GT12]") {
			found = true
		}
		if strings.Contains(p, "[GT") && !strings.Contains(p, "]") {
			t.Errorf("piece %d severed the token: %q", i, p)
		}
	}
	if !found {
		t.Errorf("token lost across pieces %q", pieces)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	pieces := chunker.Split("", 100)
	for _, p := range pieces {
		if p != "" {
			t.Errorf("expected empty piece, got %q", p)
		}
	}
}

func TestJoin_SingleSpace(t *testing.T) {
	got := chunker.Join([]string{"one", "two", "three"})
	if got != "one two three" {
		t.Errorf("expected %q, got %q", "one two three", got)
	}
}
