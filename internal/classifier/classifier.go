// Package classifier triages reply bodies into coarse sentiment buckets.
// It is keyword containment, not sentiment analysis: matching is substring
// based (so "call" fires inside longer words) and misclassification is an
// accepted cost of keeping the triage simple.
package classifier

import "strings"

// Verdict is the triage outcome for a reply body.
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
	VerdictOther    Verdict = "other"
)

var positiveKeywords = []string{
	"interested", "yes", "connect", "schedule", "call", "meet",
	"learn more", "love to", "happy to", "would like to", "open to",
}

var negativeKeywords = []string{
	"not interested", "no thanks", "not a fit", "pass", "decline",
	"unfortunately", "unable to", "not right now", "no capacity",
}

// Classify maps a reply body to a verdict. A negative keyword anywhere in the
// body wins over any positive keyword; bodies matching neither set are
// "other".
func Classify(body string) Verdict {
	lower := strings.ToLower(body)

	positive := containsAny(lower, positiveKeywords)
	negative := containsAny(lower, negativeKeywords)

	switch {
	case positive && !negative:
		return VerdictPositive
	case negative:
		return VerdictNegative
	default:
		return VerdictOther
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
