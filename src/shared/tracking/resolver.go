package tracking

import (
	"strconv"
	"strings"
)

// ResolutionKind classifies the result of Resolve.
type ResolutionKind int

const (
	ResolveNotFound ResolutionKind = iota
	ResolveExact
	ResolveAmbiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolveExact:
		return "exact"
	case ResolveAmbiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of resolving a free-text name against a catalog snapshot.
type Resolution struct {
	Kind ResolutionKind
	// Input is the trimmed raw input.
	Input string
	// BaseName is Input without a trailing index.
	BaseName string
	// Index is the 1-based index the user supplied, or 0 when none was given.
	Index int
	// Match is set for ResolveExact.
	Match CatalogEntry
	// Candidates holds every catalog row sharing BaseName, in catalog order.
	Candidates []CatalogEntry
}

// SplitIndex separates a trailing positive integer from a name, "Foo 2" -> ("Foo", 2).
// Inputs without a valid trailing index come back unchanged with index 0.
func SplitIndex(raw string) (string, int) {
	raw = strings.TrimSpace(raw)
	cut := strings.LastIndex(raw, " ")
	if cut < 0 {
		return raw, 0
	}

	suffix := raw[cut+1:]
	if !isDigits(suffix) {
		return raw, 0
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 1 {
		return raw, 0
	}

	base := strings.TrimSpace(raw[:cut])
	if base == "" {
		return raw, 0
	}
	return base, idx
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Resolve looks raw up in catalog by case-insensitive exact name. Several rows with the same
// name need a 1-based index to pick one; the index is clamped into range.
func Resolve(raw string, catalog []CatalogEntry) Resolution {
	base, idx := SplitIndex(raw)
	res := Resolution{
		Input:    strings.TrimSpace(raw),
		BaseName: base,
		Index:    idx,
	}
	if base == "" {
		return res
	}

	for _, entry := range catalog {
		if strings.EqualFold(entry.Name, base) {
			res.Candidates = append(res.Candidates, entry)
		}
	}

	switch {
	case len(res.Candidates) == 0:
		res.Kind = ResolveNotFound
	case len(res.Candidates) == 1:
		res.Kind = ResolveExact
		res.Match = res.Candidates[0]
	case idx == 0:
		res.Kind = ResolveAmbiguous
	default:
		pick := idx - 1
		if pick > len(res.Candidates)-1 {
			pick = len(res.Candidates) - 1
		}
		res.Kind = ResolveExact
		res.Match = res.Candidates[pick]
	}

	return res
}
