package formats

import (
	"strings"
	"testing"
)

func TestTextHandlerNormalizesLineEndings(t *testing.T) {
	text, format, err := Extract("poem.txt", []byte("Se cyning.\r\n\r\nHē fēoll.\rEnde."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if format != "text" {
		t.Errorf("format = %q, want text", format)
	}
	if text != "Se cyning.\n\nHē fēoll.\nEnde." {
		t.Errorf("text = %q", text)
	}
}

func TestExtractFallsBackToText(t *testing.T) {
	_, format, err := Extract("notes.md", []byte("plain prose"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if format != "text" {
		t.Errorf("format = %q, want text fallback", format)
	}
}

const teiSample = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc><titleStmt><title>Test Edition</title></titleStmt></fileDesc>
  </teiHeader>
  <text>
    <body>
      <p>Hwæt! Wē Gārdena in ġēardagum<note>A famous opening.</note>
         þēodcyninga þrym gefrūnon.</p>
      <p>Oft Scyld Scēfing sceaþena þrēatum.</p>
    </body>
  </text>
</TEI>`

func TestTEIExtractsBodyParagraphs(t *testing.T) {
	text, format, err := Extract("beowulf.xml", []byte(teiSample))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if format != "tei" {
		t.Fatalf("format = %q, want tei", format)
	}

	paras := strings.Split(text, "\n\n")
	if len(paras) != 2 {
		t.Fatalf("got %d paragraphs, want 2: %q", len(paras), text)
	}
	if paras[0] != "Hwæt! Wē Gārdena in ġēardagum þēodcyninga þrym gefrūnon." {
		t.Errorf("paragraph 1 = %q", paras[0])
	}
	if strings.Contains(text, "famous opening") {
		t.Error("note content leaked into corpus text")
	}
	if strings.Contains(text, "Test Edition") {
		t.Error("header content leaked into corpus text")
	}
}

func TestTEIDetectByContent(t *testing.T) {
	h, ok := Lookup("tei")
	if !ok {
		t.Fatal("tei handler not registered")
	}
	if !h.Detect("edition.xml", []byte(teiSample)) {
		t.Error("tei sample not detected")
	}
	if h.Detect("generic.xml", []byte("<root><p>x</p></root>")) {
		t.Error("generic xml misdetected as tei")
	}
	if !h.Detect("edition.tei", nil) {
		t.Error(".tei extension not detected")
	}
}

func TestTEIMissingBody(t *testing.T) {
	h, _ := Lookup("tei")
	if _, err := h.ExtractText([]byte(`<TEI><teiHeader/></TEI>`)); err == nil {
		t.Fatal("expected error for TEI without body")
	}
}
