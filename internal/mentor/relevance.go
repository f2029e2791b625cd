package mentor

import (
	"regexp"
	"strings"
)

// Term-extraction machinery below is grounded directly on the teacher's
// internal/hooks/term_extraction.go: quoted phrases and acronyms are
// high-signal "specific" terms, significant individual words are
// lower-signal "broad" terms, and a stop-word/common-acronym table keeps
// generic programming vocabulary from dominating the critical-term set.

var quotedRe = regexp.MustCompile(`"([^"]+)"`)
var acronymRe = regexp.MustCompile(`\b[A-Z]{2,}\b`)
var hyphenRe = regexp.MustCompile(`\b\w+-\w+(?:-\w+)*\b`)
var significantWordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var relevanceStopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "being": true,
	"below": true, "between": true, "could": true, "doing": true, "during": true,
	"every": true, "found": true, "going": true, "having": true, "might": true,
	"never": true, "other": true, "should": true, "their": true, "there": true,
	"these": true, "thing": true, "think": true, "those": true, "under": true,
	"until": true, "using": true, "where": true, "which": true, "while": true,
	"would": true, "write": true, "yours": true, "really": true, "please": true,
	"right": true, "since": true, "still": true, "today": true, "what": true,
	"when": true, "with": true, "from": true, "that": true, "this": true,
}

var decisionMarkers = map[string]bool{
	"vs": true, "versus": true, "should": true, "recommend": true,
	"tradeoff": true, "tradeoffs": true, "decide": true, "decision": true,
	"choose": true, "architecture": true,
}

// ExtractCriticalTerms extracts the query-critical term set from a
// normalized query and optional context text: technology tokens, domain
// nouns, and decision markers. Per the spec's Open Question decision,
// this is the stricter "critical-terms-only" definition, not "all
// extracted tokens".
func ExtractCriticalTerms(queryRaw, contextRaw string) map[string]bool {
	combined := queryRaw
	if contextRaw != "" {
		combined += " " + contextRaw
	}

	critical := map[string]bool{}

	for _, m := range quotedRe.FindAllStringSubmatch(combined, -1) {
		addTerm(critical, m[1])
	}
	for _, m := range acronymRe.FindAllString(combined, -1) {
		addTerm(critical, m)
	}
	for _, m := range hyphenRe.FindAllString(combined, -1) {
		addTerm(critical, m)
	}
	for _, m := range techTermRe.FindAllString(strings.ToLower(combined), -1) {
		addTerm(critical, m)
	}
	for _, word := range strings.Fields(strings.ToLower(combined)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if decisionMarkers[word] {
			addTerm(critical, word)
		}
	}
	for _, m := range significantWordRe.FindAllString(combined, -1) {
		addTerm(critical, m)
	}

	return critical
}

func addTerm(set map[string]bool, term string) {
	norm := strings.ToLower(strings.TrimSpace(term))
	if norm == "" || relevanceStopWords[norm] {
		return
	}
	set[norm] = true
}

// Validate tokenizes the candidate response and checks it against the
// critical-term set, per the relevance gate contract.
func Validate(critical map[string]bool, candidateResponse string, minScore float64, minMatches int) RelevanceResult {
	responseTokens := map[string]bool{}
	for _, w := range significantWordRe.FindAllString(strings.ToLower(candidateResponse), -1) {
		responseTokens[w] = true
	}
	for _, w := range acronymRe.FindAllString(candidateResponse, -1) {
		responseTokens[strings.ToLower(w)] = true
	}

	matched := map[string]bool{}
	for term := range critical {
		if responseTokens[term] || strings.Contains(strings.ToLower(candidateResponse), term) {
			matched[term] = true
		}
	}

	score := 0.0
	if len(critical) > 0 {
		score = float64(len(matched)) / float64(len(critical))
	}

	passed := score >= minScore && len(matched) >= minMatches
	// A query with fewer critical terms than minMatches can never be
	// satisfied; in that degenerate case require every critical term to
	// match instead of an unreachable fixed count.
	if len(critical) > 0 && len(critical) < minMatches {
		passed = len(matched) == len(critical)
	}

	return RelevanceResult{
		Score:         score,
		MatchedTerms:  matched,
		RequiredTerms: critical,
		Passed:        passed,
	}
}
