package search

import (
	"unicode"
	"unicode/utf8"
)

// Scoring constants for the alignment scorer. A matched rune is worth
// scoreMatch; gaps are penalised; runes landing on word boundaries, camel
// humps or digits earn bonuses, doubled for the first pattern rune.
const (
	scoreMatch        = 16
	scoreGapStart     = -3
	scoreGapExtension = -1

	bonusBoundary            = scoreMatch / 2
	bonusNonWord             = scoreMatch / 2
	bonusCamel123            = bonusBoundary + scoreGapExtension
	bonusConsecutive         = -(scoreGapStart + scoreGapExtension)
	bonusFirstCharMultiplier = 2
	bonusBoundaryWhite       = bonusBoundary + 2
	bonusBoundaryDelimiter   = bonusBoundary + 1
)

type charClass int

const (
	charWhite charClass = iota
	charNonWord
	charDelimiter
	charLower
	charUpper
	charLetter
	charNumber
)

const delimiterChars = "/,:;|"

func classOf(r rune) charClass {
	if r < utf8.RuneSelf {
		switch {
		case r >= 'a' && r <= 'z':
			return charLower
		case r >= 'A' && r <= 'Z':
			return charUpper
		case r >= '0' && r <= '9':
			return charNumber
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			return charWhite
		}
		for i := 0; i < len(delimiterChars); i++ {
			if rune(delimiterChars[i]) == r {
				return charDelimiter
			}
		}
		return charNonWord
	}
	switch {
	case unicode.IsLower(r):
		return charLower
	case unicode.IsUpper(r):
		return charUpper
	case unicode.IsNumber(r):
		return charNumber
	case unicode.IsLetter(r):
		return charLetter
	case unicode.IsSpace(r):
		return charWhite
	}
	return charNonWord
}

func bonusFor(prev, cur charClass) int {
	if cur > charNonWord {
		switch prev {
		case charWhite:
			return bonusBoundaryWhite
		case charDelimiter:
			return bonusBoundaryDelimiter
		case charNonWord:
			return bonusBoundary
		}
	}
	if prev == charLower && cur == charUpper || prev != charNumber && cur == charNumber {
		return bonusCamel123
	}
	switch cur {
	case charNonWord, charDelimiter:
		return bonusNonWord
	case charWhite:
		return bonusBoundaryWhite
	}
	return 0
}

// matcher scores a pattern against texts. It keeps a rune buffer between
// calls and must not be shared across goroutines.
type matcher struct {
	buf []rune
}

// score finds the shortest window that contains pattern as a subsequence,
// anchored on the leftmost complete occurrence, and scores the alignment.
// pattern must already be lowercased when caseSensitive is false.
func (m *matcher) score(text string, pattern []rune, caseSensitive bool) (int, bool) {
	if len(pattern) == 0 || len(text) < len(pattern) {
		return 0, false
	}

	m.buf = m.buf[:0]
	for _, r := range text {
		m.buf = append(m.buf, r)
	}
	runes := m.buf

	fold := func(r rune) rune {
		if caseSensitive {
			return r
		}
		return unicode.ToLower(r)
	}

	// Forward pass: end of the first complete subsequence.
	pidx, start, end := 0, -1, -1
	for i, r := range runes {
		if fold(r) == pattern[pidx] {
			if start < 0 {
				start = i
			}
			pidx++
			if pidx == len(pattern) {
				end = i + 1
				break
			}
		}
	}
	if end < 0 {
		return 0, false
	}

	// Backward pass: tighten the window's start.
	pidx = len(pattern) - 1
	for i := end - 1; i >= start; i-- {
		if fold(runes[i]) == pattern[pidx] {
			pidx--
			if pidx < 0 {
				start = i
				break
			}
		}
	}

	total := alignmentScore(runes, pattern, start, end, fold)
	if total < 0 {
		total = 0
	}
	return total, true
}

func alignmentScore(runes, pattern []rune, start, end int, fold func(rune) rune) int {
	pidx, total, consecutive, firstBonus := 0, 0, 0, 0
	inGap := false
	prevClass := charWhite
	if start > 0 {
		prevClass = classOf(runes[start-1])
	}

	for i := start; i < end; i++ {
		r := runes[i]
		class := classOf(r)
		if pidx < len(pattern) && fold(r) == pattern[pidx] {
			total += scoreMatch
			bonus := bonusFor(prevClass, class)
			if consecutive == 0 {
				firstBonus = bonus
			} else {
				if bonus >= bonusBoundary && bonus > firstBonus {
					firstBonus = bonus
				}
				bonus = max(bonus, firstBonus, bonusConsecutive)
			}
			if pidx == 0 {
				total += bonus * bonusFirstCharMultiplier
			} else {
				total += bonus
			}
			inGap = false
			consecutive++
			pidx++
		} else {
			if inGap {
				total += scoreGapExtension
			} else {
				total += scoreGapStart
			}
			inGap = true
			consecutive = 0
			firstBonus = 0
		}
		prevClass = class
	}
	return total
}
