// Package crisis flags messages that mention self-harm or suicide.
//
// Matching is a lower-cased substring scan: a phrase hidden inside a longer
// word still counts. False positives only switch the reply to the crisis
// protocol, a missed phrase can hide a person at risk.
package crisis

import "strings"

// Phrases is the fixed multilingual keyword list (English, Hindi, Telugu).
var Phrases = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"self harm",
	"self-harm",
	"cutting",
	"hurt myself",
	"no reason to live",
	"better off dead",
	"suicide plan",
	"आत्महत्या",
	"मरना चाहता",
	"मरना चाहती",
	"ఆత్మహత్య",
}

// Detect reports whether text contains any crisis phrase.
func Detect(text string) bool {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return false
	}
	for _, phrase := range Phrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// Matches returns every phrase found in text, in list order.
func Matches(text string) []string {
	normalized := strings.ToLower(text)
	var found []string
	for _, phrase := range Phrases {
		if strings.Contains(normalized, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}
