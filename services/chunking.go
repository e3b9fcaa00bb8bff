package services

import (
	"strings"

	"rag-chatbot-platform/models"
)

// TextSplitter splits text into overlapping, size-bounded segments. It
// prefers to break at paragraph, then line, then space boundaries before
// falling back to a hard character cut, and never emits empty chunks.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewTextSplitter creates a splitter with the given target size and overlap
// in characters.
func NewTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	return &TextSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// SplitDocuments splits each document's text, producing one document per
// chunk. Chunks inherit the source document's metadata.
func (ts *TextSplitter) SplitDocuments(docs []models.Document) []models.Document {
	var out []models.Document
	for _, doc := range docs {
		for _, chunk := range ts.SplitText(doc.Text) {
			md := make(map[string]any, len(doc.Metadata))
			for k, v := range doc.Metadata {
				md[k] = v
			}
			out = append(out, models.Document{Text: chunk, Metadata: md})
		}
	}
	return out
}

// SplitText splits text into chunks of at most chunkSize characters with
// chunkOverlap characters carried over between adjacent chunks.
func (ts *TextSplitter) SplitText(text string) []string {
	return ts.split(text, ts.separators)
}

func (ts *TextSplitter) split(text string, separators []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Pick the first separator present in the text; "" always matches
	separator := ""
	rest := []string{}
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			rest = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return ts.hardCut(text)
	}

	splits := splitWithSeparator(text, separator)

	var chunks []string
	var good []string
	for _, s := range splits {
		if len(s) < ts.chunkSize {
			good = append(good, s)
			continue
		}
		// Oversized split: flush what we have, then recurse with finer
		// separators
		if len(good) > 0 {
			chunks = append(chunks, ts.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, s)
		} else {
			chunks = append(chunks, ts.split(s, rest)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, ts.merge(good, separator)...)
	}

	return chunks
}

// merge greedily combines small splits into chunks up to chunkSize, retaining
// up to chunkOverlap trailing characters when starting the next chunk.
func (ts *TextSplitter) merge(splits []string, separator string) []string {
	sepLen := len(separator)

	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(current, separator))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, s := range splits {
		extra := len(s)
		if len(current) > 0 {
			extra += sepLen
		}
		if total+extra > ts.chunkSize && len(current) > 0 {
			flush()
			// Drop leading splits until within the overlap budget
			for total > ts.chunkOverlap || (total+extra > ts.chunkSize && total > 0) {
				drop := len(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
				if len(current) == 0 {
					break
				}
			}
		}
		current = append(current, s)
		total += len(s)
		if len(current) > 1 {
			total += sepLen
		}
	}
	flush()

	return chunks
}

// splitWithSeparator splits text by sep, dropping empty pieces.
func splitWithSeparator(text, sep string) []string {
	raw := strings.Split(text, sep)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// hardCut slices text into fixed-size overlapping windows. Last-resort path
// for text with no usable separator.
func (ts *TextSplitter) hardCut(text string) []string {
	runes := []rune(text)
	step := ts.chunkSize - ts.chunkOverlap
	if step <= 0 {
		step = ts.chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + ts.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
