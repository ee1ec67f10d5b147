package citation

import "strings"

// Detect classifies a citation line. When several heuristics fire, the
// styles are tried in priority order and the first tokenizer that yields
// authors wins.
func Detect(line string) Style {
	body := stripIdentifiers(normalizeLine(line))
	cands := candidates(body)
	switch len(cands) {
	case 0:
		return StyleUnknown
	case 1:
		return cands[0]
	}
	for _, s := range cands {
		if len(tokenizers[s](body).authors) > 0 {
			return s
		}
	}
	return cands[0]
}

// candidates returns every style whose author-block heuristic matches,
// site export first, then Vancouver, APA/Harvard and MLA/Chicago.
func candidates(body string) []Style {
	var out []Style
	if looksSiteExport(body) {
		out = append(out, StyleSiteExport)
	}
	for _, s := range priority {
		if shapeChecks[s](body) {
			out = append(out, s)
		}
	}
	return out
}

var shapeChecks = map[Style]func(string) bool{
	StyleVancouver:  looksVancouver,
	StyleAPAHarvard: looksAPA,
	StyleMLAChicago: looksMLA,
}

// looksSiteExport: semicolon-separated names before the first sentence break.
func looksSiteExport(body string) bool {
	head := firstSegment(body)
	return strings.Contains(head, ";") && splitSiteExportAuthors(head) != nil
}

// looksVancouver: "Last FM, Last FM" before the first sentence break.
func looksVancouver(body string) bool {
	return splitVancouverAuthors(firstSegment(body)) != nil
}

// looksAPA: an author block closed by a year marker whose given names are
// all initials ("Last, F. M.").
func looksAPA(body string) bool {
	block, _, _, ok := splitAtYearMarker(body)
	if !ok {
		return false
	}
	authors := splitAPAAuthors(block)
	if len(authors) == 0 {
		return false
	}
	for _, a := range authors {
		if a.First != "" {
			return false
		}
	}
	return true
}

// looksMLA: a lead author "Last, First" with a spelled-out given name.
func looksMLA(body string) bool {
	var block string
	if m := quotedTitlePattern.FindStringSubmatch(body); m != nil {
		block = m[1]
	} else {
		segs := splitSegments(body, true)
		if len(segs) < 2 {
			return false
		}
		block = segs[0]
	}
	parts := strings.SplitN(block, ",", 3)
	if len(parts) < 2 || !invertedLead(parts) {
		return false
	}
	given := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(parts[1]), "."))
	if given == "" || looksLikeInitials(given) || suffixOf(given) != "" {
		return false
	}
	return splitMLAAuthors(block) != nil
}

func firstSegment(body string) string {
	segs := splitSegments(body, false)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}
