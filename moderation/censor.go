// Package moderation masks forbidden words in outbound replies.
// Generated text is not under our control, so everything produced by the
// inference collaborator passes through here before it is sent.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Censor holds an Aho-Corasick automaton built over normalized word lists.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewCensor builds the automaton from the given word list. Words are
// normalized the same way as scanned text (lower case, leet unfolded,
// punctuation and spacing stripped).
func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalizeRunes([]rune(word))
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, mask: mask}, nil
}

// Apply masks every forbidden span in text and returns the masked words.
// Spacing and untouched characters are preserved.
func (c *Censor) Apply(text string) (string, []string) {
	mapping := c.normalize(text)
	if len(mapping.normalized) == 0 {
		return text, nil
	}

	spans := c.machine.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return text, nil
	}

	origRunes := []rune(text)
	var masked []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[start]
		origEnd := mapping.origIdx[end-1] + 1
		masked = append(masked, string(span.Word))
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = c.mask
		}
	}
	return string(origRunes), masked
}

// normalize produces the searchable form of the input and remembers where
// each kept rune came from, so masking can hit the original positions.
func (c *Censor) normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}

	for i, r := range origRunes {
		clean := unfoldLeet(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := unfoldLeet(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// unfoldLeet maps common leet speak characters back to their alphabet counterparts.
func unfoldLeet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
