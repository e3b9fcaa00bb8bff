package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"rag-chatbot-platform/models"
)

func TestSupportedFileType(t *testing.T) {
	supported := []string{"a.pdf", "a.txt", "a.docx", "a.doc", "a.html", "a.htm", "REPORT.PDF"}
	for _, name := range supported {
		if !SupportedFileType(name) {
			t.Errorf("expected %s to be supported", name)
		}
	}

	unsupported := []string{"a.exe", "a.csv", "a", "a.pdf.zip"}
	for _, name := range unsupported {
		if SupportedFileType(name) {
			t.Errorf("expected %s to be unsupported", name)
		}
	}
}

func TestLoadDocumentsUnsupportedType(t *testing.T) {
	_, err := LoadDocuments([]byte("data"), "malware.exe")
	if !errors.Is(err, models.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestLoadText(t *testing.T) {
	docs, err := LoadDocuments([]byte("plain text content"), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Text != "plain text content" {
		t.Fatalf("unexpected text: %q", docs[0].Text)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
    <p><r><t>   </t></r></p>
  </body>
</document>`)

	docs, err := LoadDocuments(data, "report.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if !strings.Contains(docs[0].Text, "First paragraph.") {
		t.Errorf("missing first paragraph: %q", docs[0].Text)
	}
	if !strings.Contains(docs[0].Text, "Second paragraph.") {
		t.Errorf("runs not joined: %q", docs[0].Text)
	}
}

func TestLoadDOCXRejectsNonArchive(t *testing.T) {
	// Legacy binary .doc is not a zip archive
	_, err := LoadDocuments([]byte("not a zip"), "legacy.doc")
	if err == nil {
		t.Fatal("expected error for non-archive input")
	}
}

func TestLoadHTML(t *testing.T) {
	html := `<html><head><title>Product Guide</title>
<style>body { color: red }</style></head>
<body><script>alert(1)</script><p>Install the unit.</p></body></html>`

	docs, err := LoadDocuments([]byte(html), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Metadata["title"] != "Product Guide" {
		t.Errorf("missing title metadata: %v", docs[0].Metadata)
	}
	if !strings.Contains(docs[0].Text, "Install the unit.") {
		t.Errorf("missing body text: %q", docs[0].Text)
	}
	if strings.Contains(docs[0].Text, "alert(1)") || strings.Contains(docs[0].Text, "color: red") {
		t.Errorf("script/style content leaked: %q", docs[0].Text)
	}
}
