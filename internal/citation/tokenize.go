package citation

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

// fields is what a style tokenizer extracts from an identifier-free body.
type fields struct {
	authors []publication.Author
	title   string
	year    int
}

var tokenizers = map[Style]func(string) fields{
	StyleVancouver:  tokenizeVancouver,
	StyleAPAHarvard: tokenizeAPA,
	StyleMLAChicago: tokenizeMLA,
	StyleSiteExport: tokenizeSiteExport,
}

// Tokenize splits raw into structured fields using the given style.
func Tokenize(raw string, style Style) (Tokenized, error) {
	if style == StyleMEDLINE {
		return tokenizeMEDLINE(raw)
	}
	line := normalizeLine(raw)
	fn, ok := tokenizers[style]
	if !ok {
		return Tokenized{}, &ParseError{Style: style, Reason: "no tokenizer for style", Text: raw}
	}
	f := fn(stripIdentifiers(line))
	t := Tokenized{
		Authors:       f.authors,
		Title:         cleanTitle(f.title),
		Year:          f.year,
		Identifiers:   extractIdentifiers(line),
		Style:         style,
		ReferenceLine: line,
	}
	if t.IsEmpty() {
		return Tokenized{}, &ParseError{Style: style, Reason: "no authors, title or identifiers found", Text: raw}
	}
	return t, nil
}

// Parse detects the style of raw.Text and tokenizes it.
func Parse(raw RawCitation) (Tokenized, error) {
	style := Detect(raw.Text)
	if style == StyleUnknown {
		t, ok := identifierOnly(raw.Text)
		if !ok {
			return Tokenized{}, &StyleDetectionError{Origin: raw.Origin, Text: raw.Text}
		}
		t.Source = raw.Source
		t.Origin = raw.Origin
		return t, nil
	}
	t, err := Tokenize(raw.Text, style)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Origin = raw.Origin
		}
		return Tokenized{}, err
	}
	t.Source = raw.Source
	t.Origin = raw.Origin
	return t, nil
}

// identifierOnly accepts a line that holds nothing but identifiers, such as
// "PMID: 12345678" or "doi:10.1000/abc". Its style stays unknown.
func identifierOnly(raw string) (Tokenized, bool) {
	line := normalizeLine(raw)
	ids := extractIdentifiers(line)
	if ids.IsZero() || hasLetter(stripIdentifiers(line)) {
		return Tokenized{}, false
	}
	return Tokenized{Identifiers: ids, Style: StyleUnknown, ReferenceLine: line}, true
}

// ParseText parses one citation per non-blank line. Failures are collected
// per line and never stop the scan.
func ParseText(text, source string) ([]Tokenized, []error) {
	var (
		parsed []Tokenized
		errs   []error
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		t, err := Parse(RawCitation{Source: source, Text: line, Origin: fmt.Sprintf("line %d", lineNum)})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, t)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading %s: %w", source, err))
	}
	return parsed, errs
}

// writeSentence appends s and a closing period unless s already ends one.
func writeSentence(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	b.WriteString(s)
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "?") && !strings.HasSuffix(s, "!") {
		b.WriteString(".")
	}
	b.WriteString(" ")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
