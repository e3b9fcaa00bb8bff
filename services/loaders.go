package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"rag-chatbot-platform/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Loader extracts raw documents from file bytes. Loaders are thin wrappers
// around format libraries; all cleaning happens downstream.
type Loader func(data []byte, filename string) ([]models.Document, error)

// loaders is the extension dispatch table. Extensions not listed here fail
// with models.ErrUnsupportedFileType.
var loaders = map[string]Loader{
	".pdf":  loadPDF,
	".txt":  loadText,
	".docx": loadDOCX,
	".doc":  loadDOCX,
	".html": loadHTML,
	".htm":  loadHTML,
}

// SupportedFileType reports whether a loader is registered for the filename's
// extension.
func SupportedFileType(filename string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// LoadDocuments dispatches on file extension and extracts documents from the
// raw bytes.
func LoadDocuments(data []byte, filename string) ([]models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	loader, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFileType, filename)
	}
	return loader(data, filename)
}

// loadPDF extracts one document per page. Page numbers in metadata are
// 0-indexed; display conversion happens at citation time.
func loadPDF(data []byte, filename string) ([]models.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	docs := make([]models.Document, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, models.Document{
			Text: text,
			Metadata: map[string]any{
				"page":        i - 1,
				"total_pages": numPages,
			},
		})
	}

	return docs, nil
}

func loadText(data []byte, filename string) ([]models.Document, error) {
	return []models.Document{
		{
			Text:     string(data),
			Metadata: map[string]any{},
		},
	}, nil
}

// docx XML: paragraphs <w:p> contain runs with text in <w:t> elements.
type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []string `xml:"r>t"`
}

// loadDOCX reads the main document part of the OOXML package. Legacy binary
// .doc files are not zip archives and fail here; ingestion converts that into
// a searchable error chunk.
func loadDOCX(data []byte, filename string) ([]models.Document, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document archive: %w", err)
	}

	var docPart io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docPart, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open document part: %w", err)
			}
			break
		}
	}
	if docPart == nil {
		return nil, fmt.Errorf("no document body found in %s", filename)
	}
	defer docPart.Close()

	content, err := io.ReadAll(docPart)
	if err != nil {
		return nil, err
	}

	var body docxBody
	if err := xml.Unmarshal(content, &body); err != nil {
		return nil, fmt.Errorf("failed to parse document XML: %w", err)
	}

	var b strings.Builder
	for _, p := range body.Paragraphs {
		line := strings.Join(p.Runs, "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return []models.Document{}, nil
	}

	return []models.Document{
		{
			Text:     text,
			Metadata: map[string]any{},
		},
	}, nil
}

func loadHTML(data []byte, filename string) ([]models.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	md := map[string]any{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		md["title"] = title
	}

	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}

	return []models.Document{
		{
			Text:     text,
			Metadata: md,
		},
	}, nil
}
