package chunker

import (
	"strings"
	"testing"

	"immigrationiq/internal/domain"
)

func TestChunkDocumentHeaderPage(t *testing.T) {
	c := NewRecursiveChunker(800, 150, 50)

	pages := []domain.Page{
		{Number: 1, Text: "Form I-485 Instructions (01/01/24)\n\nFile this form to apply for a green card."},
	}
	chunks := c.ChunkDocument("I-485", "data/uscis_pdfs/I-485_instructions.pdf", pages)

	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.SourceLabel != "USCIS Form I-485 Instructions, Page 1" {
		t.Errorf("unexpected source label: %q", got.SourceLabel)
	}
	if strings.Contains(got.Text, "Form I-485 Instructions (01/01/24)") {
		t.Errorf("running header not stripped: %q", got.Text)
	}
	if !strings.Contains(got.Text, "File this form to apply for a green card.") {
		t.Errorf("page content lost: %q", got.Text)
	}
	if got.FormNumber != "I-485" || got.Page != 1 {
		t.Errorf("provenance wrong: form=%q page=%d", got.FormNumber, got.Page)
	}
}

func TestChunkDocumentDropsShortPages(t *testing.T) {
	c := NewRecursiveChunker(800, 150, 50)

	pages := []domain.Page{
		{Number: 1, Text: "Table of Contents"},
		{Number: 2, Text: strings.Repeat("Eligibility requirements for adjustment of status. ", 3)},
		{Number: 3, Text: "   \n\n  "},
	}
	chunks := c.ChunkDocument("I-485", "x.pdf", pages)

	if len(chunks) == 0 {
		t.Fatal("expected chunks from page 2")
	}
	for _, ch := range chunks {
		if ch.Page != 2 {
			t.Errorf("page %d survived the minimum-length filter", ch.Page)
		}
	}
}

func TestChunkDocumentPageNumbering(t *testing.T) {
	c := NewRecursiveChunker(800, 150, 10)

	pages := []domain.Page{
		{Number: 1, Text: "Who may file this petition and when to file it."},
		{Number: 2, Text: "Where to file the petition and the filing fee."},
	}
	chunks := c.ChunkDocument("I-130", "I-130_instructions.pdf", pages)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		wantPage := i + 1
		if ch.Page != wantPage {
			t.Errorf("chunk %d: expected page %d, got %d", i, wantPage, ch.Page)
		}
		if ch.SourceLabel != SourceLabel("I-130", wantPage) {
			t.Errorf("chunk %d: label %q does not match page", i, ch.SourceLabel)
		}
		if ch.OriginPath != "I-130_instructions.pdf" {
			t.Errorf("chunk %d: origin path %q", i, ch.OriginPath)
		}
	}
}

func TestChunkIDsStableAndUnique(t *testing.T) {
	c := NewRecursiveChunker(100, 20, 10)

	pages := []domain.Page{
		{Number: 1, Text: strings.Repeat("General instructions for completing the form. ", 10)},
	}
	first := c.ChunkDocument("N-400", "n400.pdf", pages)
	second := c.ChunkDocument("N-400", "n400.pdf", pages)

	if len(first) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("chunking is not deterministic: %d vs %d chunks", len(first), len(second))
	}
	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d: id changed between runs", i)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk id %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestSplitRespectsSizeBound(t *testing.T) {
	c := NewRecursiveChunker(800, 150, 50)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("The applicant must establish continuous residence and physical presence. ")
		if i%5 == 4 {
			sb.WriteString("\n\n")
		}
	}
	chunks := c.Split(sb.String())

	if len(chunks) < 2 {
		t.Fatalf("expected the text to split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch) > 800 {
			t.Errorf("chunk %d exceeds size bound: %d chars", i, len(ch))
		}
		if ch == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	c := NewRecursiveChunker(10, 3, 0)

	chunks := c.Split("aa bb cc dd ee")
	want := []string{"aa bb cc", "cc dd ee"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	c := NewRecursiveChunker(30, 5, 0)

	chunks := c.Split("First paragraph here.\n\nSecond paragraph text.")
	if len(chunks) != 2 {
		t.Fatalf("expected a split at the paragraph boundary, got %v", chunks)
	}
	if chunks[0] != "First paragraph here." || chunks[1] != "Second paragraph text." {
		t.Errorf("paragraphs were not kept intact: %v", chunks)
	}
}

func TestSplitCharacterFallback(t *testing.T) {
	c := NewRecursiveChunker(10, 2, 0)

	chunks := c.Split(strings.Repeat("x", 25))
	if len(chunks) == 0 {
		t.Fatal("expected chunks from unbreakable input")
	}
	total := 0
	for i, ch := range chunks {
		if len(ch) > 10 {
			t.Errorf("chunk %d exceeds size bound: %d chars", i, len(ch))
		}
		if strings.Trim(ch, "x") != "" {
			t.Errorf("chunk %d contains foreign characters: %q", i, ch)
		}
		total += len(ch)
	}
	// Overlap duplicates characters, so the sum is at least the input.
	if total < 25 {
		t.Errorf("chunks cover %d of 25 input characters", total)
	}
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	c := NewRecursiveChunker(800, 150, 0)

	chunks := c.Split("A single short paragraph.")
	if len(chunks) != 1 || chunks[0] != "A single short paragraph." {
		t.Errorf("expected the input back unchanged, got %v", chunks)
	}
}
