// Package document reads citation sources from disk: plain-text and Word
// reference lists, PDFs and MEDLINE exports.
package document

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	docx "baliance.com/gooxml/document"
	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Kind is the detected format of a citation source.
type Kind string

const (
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindMEDLINE Kind = "medline"
)

// Document is the text of one citation source.
type Document struct {
	Path string
	Kind Kind
	Text string
}

// DetectKind picks the format from the extension, falling back to
// sniffing for MEDLINE tags.
func DetectKind(path string, head []byte) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".nbib", ".medline":
		return KindMEDLINE
	}
	if strings.HasPrefix(string(head), "%PDF-") {
		return KindPDF
	}
	if medlineHead.Match(head) {
		return KindMEDLINE
	}
	return KindText
}

var medlineHead = regexp.MustCompile(`^\s*PMID- ?\d+`)

// Read loads path and extracts its text.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	doc := &Document{Path: path, Kind: DetectKind(path, data)}
	switch doc.Kind {
	case KindPDF:
		doc.Text, err = ExtractText(path, 0)
	case KindDOCX:
		doc.Text, err = ExtractDOCXText(path)
	default:
		doc.Text = string(data)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "extract text from %s", path)
	}
	return doc, nil
}

// ExtractDOCXText returns the body paragraphs of a Word document, one per
// line.
func ExtractDOCXText(filePath string) (string, error) {
	d, err := docx.Open(filePath)
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for _, para := range d.Paragraphs() {
		for _, run := range para.Runs() {
			builder.WriteString(run.Text())
		}
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// ExtractText extracts all text from the first N pages of a PDF.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// Lines returns the citation lines of the document. Text files carry one
// citation per line; PDF text is cut to its reference section and wrapped
// entries are rejoined.
func (d *Document) Lines() []string {
	if d.Kind == KindPDF {
		return SplitReferences(ReferenceSection(d.Text))
	}
	var lines []string
	for _, line := range strings.Split(d.Text, "\n") {
		line = stripEnumerator(strings.TrimSpace(line))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var referencesHeading = regexp.MustCompile(`(?im)^\s*(references|bibliography|literature cited|publications)\s*:?\s*$`)

// ReferenceSection returns the text after the last references heading, or
// all of text when there is none.
func ReferenceSection(text string) string {
	locs := referencesHeading.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	return text[locs[len(locs)-1][1]:]
}

var enumerator = regexp.MustCompile(`^(\[\d{1,3}\]|\d{1,3}[.)])\s+`)

func stripEnumerator(line string) string {
	return enumerator.ReplaceAllString(line, "")
}

// SplitReferences joins wrapped lines into one string per reference. A new
// reference starts at an enumerator or, in unnumbered lists, after a blank
// line.
func SplitReferences(text string) []string {
	lines := strings.Split(text, "\n")
	numbered := false
	for _, line := range lines {
		if enumerator.MatchString(strings.TrimSpace(line)) {
			numbered = true
			break
		}
	}

	var refs []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			refs = append(refs, joinWrapped(cur))
			cur = nil
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			if !numbered {
				flush()
			}
		case numbered && enumerator.MatchString(line):
			flush()
			cur = append(cur, stripEnumerator(line))
		default:
			cur = append(cur, line)
		}
	}
	flush()
	return refs
}

// joinWrapped joins lines, rejoining words hyphenated across a break.
func joinWrapped(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			prev := lines[i-1]
			if strings.HasSuffix(prev, "-") && len(prev) > 1 && isLower(prev[len(prev)-2]) {
				s := b.String()
				b.Reset()
				b.WriteString(s[:len(s)-1])
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(line)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}
