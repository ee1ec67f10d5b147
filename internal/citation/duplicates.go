package citation

import "sort"

// FindDuplicates groups citations that share a PMID or DOI, or whose
// titles sameTitle considers equal. Grouping is transitive. Only groups of
// two or more are returned, each sorted, ordered by first index.
func FindDuplicates(cits []Tokenized, sameTitle func(a, b string) bool) [][]int {
	parent := make([]int, len(cits))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	byPMID := make(map[string]int)
	byDOI := make(map[string]int)
	for i, c := range cits {
		if c.PMID != "" {
			if j, ok := byPMID[c.PMID]; ok {
				union(i, j)
			} else {
				byPMID[c.PMID] = i
			}
		}
		if c.DOI != "" {
			if j, ok := byDOI[c.DOI]; ok {
				union(i, j)
			} else {
				byDOI[c.DOI] = i
			}
		}
		if sameTitle == nil || c.Title == "" {
			continue
		}
		for j := 0; j < i; j++ {
			if cits[j].Title != "" && find(i) != find(j) && sameTitle(c.Title, cits[j].Title) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range cits {
		r := find(i)
		groups[r] = append(groups[r], i)
	}
	var out [][]int
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}
