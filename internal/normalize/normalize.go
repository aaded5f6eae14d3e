// Package normalize turns raw address and job-title strings into the canonical
// form used for catalog matching.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Kind tags which normalization rules apply to a string
type Kind string

const (
	Address  Kind = "address"
	JobTitle Kind = "job_title"
)

// minAddressToken is the shortest address token kept after cleaning
const minAddressToken = 3

// ParseKind maps a config or request value onto a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "address", "area", "areas", "mrigo":
		return Address, nil
	case "job_title", "job-title", "occupation", "occupations", "okpdtr":
		return JobTitle, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Normalizer applies the cleaning rules of one entity kind. It holds no
// mutable state after construction and is safe for concurrent use.
type Normalizer struct {
	kind   Kind
	prefix string
	split  *regexp.Regexp
}

// New builds a normalizer. Markers are literal strings matched without regard
// to case; the raw text is cut at the leftmost occurrence of any of them.
// Prefix is removed once when the raw text starts with it.
func New(kind Kind, markers []string, prefix string) *Normalizer {
	n := &Normalizer{kind: kind, prefix: norm.NFC.String(prefix)}

	var alts []string
	seen := make(map[string]bool)
	for _, m := range markers {
		m = norm.NFC.String(m)
		if kind == JobTitle {
			m = foldJobTitle(m)
		}
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		alts = append(alts, regexp.QuoteMeta(m))
	}
	if len(alts) > 0 {
		n.split = regexp.MustCompile("(?i)" + strings.Join(alts, "|"))
	}
	return n
}

// Kind returns the entity kind the normalizer was built for
func (n *Normalizer) Kind() Kind {
	return n.kind
}

// Normalize converts raw text to its comparison form. It never fails: text
// that cleans down to nothing yields "".
func (n *Normalizer) Normalize(raw string) string {
	s := norm.NFC.String(raw)
	if n.prefix != "" {
		s = strings.TrimPrefix(s, n.prefix)
	}
	if n.kind == JobTitle {
		s = foldJobTitle(s)
	}

	// Cleaning can assemble a marker that was broken up, as "ра1йон" becomes
	// "район". Cut and clean until the text is stable; every change shortens it.
	s = n.clean(n.cut(s))
	for {
		next := n.clean(n.cut(s))
		if next == s {
			return s
		}
		s = next
	}
}

// cut drops everything from the leftmost noise marker on
func (n *Normalizer) cut(s string) string {
	if n.split != nil {
		if loc := n.split.FindStringIndex(s); loc != nil {
			return s[:loc[0]]
		}
	}
	return s
}

// NormalizeName prepares a catalog name. Catalog names go through the same
// character rules as queries but are never prefix-stripped or cut at markers.
func (n *Normalizer) NormalizeName(name string) string {
	s := norm.NFC.String(name)
	if n.kind == JobTitle {
		s = foldJobTitle(s)
	}
	return n.clean(s)
}

func (n *Normalizer) clean(s string) string {
	if n.kind == JobTitle {
		// ordinals such as "1st" or "2nd" go as a whole token
		tokens := strings.Fields(stripSymbols(s))
		kept := tokens[:0]
		for _, tok := range tokens {
			if strings.IndexFunc(tok, unicode.IsDigit) < 0 {
				kept = append(kept, tok)
			}
		}
		return strings.Join(kept, " ")
	}

	s = stripSymbols(stripDigits(s))
	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= minAddressToken {
			kept = append(kept, tok)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func foldJobTitle(s string) string {
	s = cases.Lower(language.Russian).String(s)
	return strings.ReplaceAll(s, "-", " ")
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}

// stripSymbols drops every rune that is neither a word character nor space
func stripSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// ContainsPhrase reports whether the tokens of phrase occur as a contiguous
// run of whole tokens in text.
func ContainsPhrase(text, phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 {
		return false
	}
	have := strings.Fields(text)
	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j := range want {
			if have[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
