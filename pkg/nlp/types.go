package nlp

type MatchResult struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}
