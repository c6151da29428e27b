package formats

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/aelfread/wordhoard/core/errors"
)

// teiHandler extracts corpus text from TEI XML editions. Body
// paragraphs become blank-line-separated paragraphs; the teiHeader and
// all <note> elements are editorial apparatus, not text, and are
// dropped.
var teiHandler = Handler{
	Name: "tei",
	Detect: func(path string, data []byte) bool {
		if hasExt(path, ".tei") {
			return true
		}
		if !hasExt(path, ".xml") {
			return false
		}
		return bytes.Contains(data, []byte("<TEI")) || bytes.Contains(data, []byte("<teiHeader"))
	},
	ExtractText: extractTEI,
}

func extractTEI(data []byte) (string, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return "", errors.NewParse("tei", "", err.Error())
	}

	body, err := xmlquery.Query(root, "//body")
	if err != nil {
		return "", errors.Wrap(err, "query body")
	}
	if body == nil {
		return "", errors.NewParse("tei", "", "document has no body element")
	}

	paras, err := xmlquery.QueryAll(body, ".//p")
	if err != nil {
		return "", errors.Wrap(err, "query paragraphs")
	}

	var out []string
	if len(paras) == 0 {
		if t := collapseSpace(textWithoutNotes(body)); t != "" {
			out = append(out, t)
		}
	}
	for _, p := range paras {
		if t := collapseSpace(textWithoutNotes(p)); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

// textWithoutNotes walks n gathering text nodes, skipping <note>
// subtrees.
func textWithoutNotes(n *xmlquery.Node) string {
	var b strings.Builder
	var walk func(*xmlquery.Node)
	walk = func(node *xmlquery.Node) {
		if node.Type == xmlquery.ElementNode && node.Data == "note" {
			return
		}
		if node.Type == xmlquery.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace trims and squeezes internal whitespace runs, which XML
// indentation otherwise litters through the text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
