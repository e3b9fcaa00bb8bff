package services

import (
	"strings"
	"testing"

	"rag-chatbot-platform/models"
)

func TestSplitTextEmptyInput(t *testing.T) {
	ts := NewTextSplitter(1200, 120)

	if chunks := ts.SplitText(""); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := ts.SplitText("   \n\n  "); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	ts := NewTextSplitter(100, 10)

	chunks := ts.SplitText("first paragraph\n\nsecond paragraph")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "first paragraph\n\nsecond paragraph" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitTextRespectsSizeBound(t *testing.T) {
	ts := NewTextSplitter(50, 10)

	words := make([]string, 100)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := ts.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunk %d exceeds size bound: %d chars", i, len(chunk))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitTextPrefersParagraphBoundaries(t *testing.T) {
	ts := NewTextSplitter(20, 0)

	chunks := ts.SplitText("aaaa aaaa aaaa\n\nbbbb bbbb bbbb")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "aaaa aaaa aaaa" || chunks[1] != "bbbb bbbb bbbb" {
		t.Fatalf("chunks did not break at paragraph boundary: %v", chunks)
	}
}

func TestSplitTextHardCutWithOverlap(t *testing.T) {
	ts := NewTextSplitter(20, 5)

	text := strings.Repeat("a", 50)
	chunks := ts.SplitText(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if len(chunk) > 20 {
			t.Errorf("chunk %d exceeds size bound: %d", i, len(chunk))
		}
	}
	// Step is size minus overlap, so adjacent windows share 5 characters
	if chunks[0][15:] != chunks[1][:5] {
		t.Errorf("missing overlap between chunks 0 and 1")
	}
}

func TestSplitTextNeverEmitsEmptyChunks(t *testing.T) {
	ts := NewTextSplitter(10, 2)

	chunks := ts.SplitText("a\n\n\n\nb\n\n   \n\nc")
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
}

func TestSplitDocumentsInheritsMetadata(t *testing.T) {
	ts := NewTextSplitter(20, 0)

	docs := []models.Document{
		{
			Text:     strings.Repeat("word ", 20),
			Metadata: map[string]any{"page": 3, "source_file": "a.pdf"},
		},
	}

	chunks := ts.SplitDocuments(docs)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Metadata["page"] != 3 || chunk.Metadata["source_file"] != "a.pdf" {
			t.Fatalf("chunk %d lost metadata: %v", i, chunk.Metadata)
		}
	}

	// Metadata maps must be independent copies
	chunks[0].Metadata["page"] = 99
	if chunks[1].Metadata["page"] != 3 {
		t.Fatal("metadata map shared between chunks")
	}
}
