package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b|\b\d{4}-\d{1,2}-\d{1,2}\b|\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	reLegal   = regexp.MustCompile(`\b(court|plaintiff|defendant|case no|motion|hearing|order|counsel)\b`)
	reGarbage = regexp.MustCompile(`[^\p{L}\p{N}\s.,:;'"()\-/$%&§]`)
)

// heuristicConfidence scores decoded text 0..1 from a few cheap signals.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(txtL) {
		score += 0.25
	}
	if reLegal.MatchString(txtL) {
		score += 0.25
	}
	if len(txt) > 120 {
		score += 0.15
	}
	if garbage := len(reGarbage.FindAllString(txt, -1)); garbage*20 < len(txt) {
		score += 0.15
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
