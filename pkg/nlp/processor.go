package nlp

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dotlessI = strings.NewReplacer("ı", "i")

// Lower applies Turkish casing rules (I -> ı, İ -> i) and trims the text.
func Lower(text string) string {
	// a Caser keeps state and must not be shared between goroutines
	return strings.TrimSpace(cases.Lower(language.Turkish).String(text))
}

// Clean lowercases with Turkish rules, replaces sentence punctuation with
// spaces and collapses whitespace. Diacritics are kept.
func Clean(text string) string {
	text = Lower(text)
	text = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// Fold reduces text to a diacritic free, lowercase ASCII-ish form so that
// "Saç Kesimi", "sac kesimi" and "SAÇ KESİMİ" compare equal.
func Fold(text string) string {
	text = dotlessI.Replace(Lower(text))

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '\'' {
			return r
		}
		return ' '
	}, result)

	return strings.Join(strings.Fields(result), " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// ContainsWord reports whether keyword occurs in text starting at a word
// boundary. Keywords of three runes or fewer must match a whole word so
// that "hi" does not fire on "hizmet". Both inputs are expected folded.
func ContainsWord(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	padded := " " + text + " "
	if len([]rune(keyword)) <= 3 {
		return strings.Contains(padded, " "+keyword+" ")
	}
	return strings.Contains(padded, " "+keyword)
}

// Similarity scores two strings in [0, 1] after folding. It takes the best
// of edit distance, containment and per-token stem overlap, which tolerates
// Turkish suffixes ("kestirmek" vs "kesimi").
func Similarity(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}

	score := editSimilarity(fa, fb)

	ca, cb := strings.ReplaceAll(fa, " ", ""), strings.ReplaceAll(fb, " ", "")
	shorter, longer := ca, cb
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) >= 3 && strings.Contains(longer, shorter) {
		ratio := float64(len([]rune(shorter))) / float64(len([]rune(longer)))
		score = math.Max(score, 0.85+0.15*ratio)
	}

	return math.Max(score, tokenSimilarity(fa, fb))
}

// BestMatch returns the candidate most similar to input when it clears
// threshold.
func BestMatch(input string, candidates []string, threshold float64) (MatchResult, bool) {
	best := MatchResult{}
	for _, candidate := range candidates {
		score := Similarity(input, candidate)
		if score > best.Score {
			best = MatchResult{Value: candidate, Score: score}
		}
	}
	if best.Value == "" || best.Score < threshold {
		return MatchResult{}, false
	}
	return best, true
}

func tokenSimilarity(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	matched := 0
	for _, want := range tb {
		for _, got := range ta {
			if tokensMatch(got, want) {
				matched++
				break
			}
		}
	}

	// scaled so that token overlap never beats an exact match
	return 0.9 * float64(matched) / float64(max(len(ta), len(tb)))
}

func tokensMatch(a, b string) bool {
	if a == b || editSimilarity(a, b) >= 0.8 {
		return true
	}
	ra, rb := []rune(a), []rune(b)
	shortest := min(len(ra), len(rb))
	prefix := 0
	for prefix < shortest && ra[prefix] == rb[prefix] {
		prefix++
	}
	return prefix >= 3 && float64(prefix)/float64(shortest) >= 0.5
}

func editSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 0
	}
	return math.Max(0, 1.0-float64(levenshteinDistance(ra, rb))/float64(maxLen))
}

func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}

	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
