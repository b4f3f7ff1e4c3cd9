package pipeline

import "strings"

type DetectResult struct {
	LooksLikeLayout bool
	Score           float64
	Reason          string
}

// DetectLayout scores how much of the claim layout text carries. It separates a document
// in the expected format that failed to parse from an unrelated one; the extractor
// itself never makes that distinction.
func DetectLayout(text string) DetectResult {
	hits := 0
	for _, field := range claimLayout {
		label := strings.TrimSuffix(field.label, "\t")
		if strings.Contains(text, label) {
			hits++
		}
	}

	score := float64(hits) / float64(len(claimLayout))
	looks := score >= 0.5
	reason := "rules_negative"
	if looks {
		reason = "rules_positive"
	}
	return DetectResult{LooksLikeLayout: looks, Score: score, Reason: reason}
}
