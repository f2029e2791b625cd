package mentor

import "regexp"

// ConfidenceWeights is data, not code, per the requirement that weights
// be reloadable without a restart — it travels inside Config and can be
// hot-reloaded the same way thresholds are.
type ConfidenceWeights struct {
	PatternMatch     float64
	PatternMatchCap  float64
	ShortQuery       float64
	NoTechTerms      float64
	WorkspaceFiles   float64
	FileReferences   float64
	ManyTechTerms    float64
	LongQuery        float64
	ShortQueryWords  int
	LongQueryWords   int
	ManyTechTermsAt  int
}

// DefaultConfidenceWeights mirrors the weighted feature sum from the
// design notes, in the same "baseline + weighted terms, clamped" shape
// as the teacher's memory confidence scorer.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		PatternMatch:    0.4,
		PatternMatchCap: 0.4,
		ShortQuery:      0.1,
		NoTechTerms:     0.1,
		WorkspaceFiles:  0.2,
		FileReferences:  0.15,
		ManyTechTerms:   0.15,
		LongQuery:       0.1,
		ShortQueryWords: 12,
		LongQueryWords:  40,
		ManyTechTermsAt: 5,
	}
}

// commonQuestionPatterns are the "answerable by canned response" shape
// signals: generic how/what/why engineering questions.
var commonQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(what|how|why|when)\s`),
	regexp.MustCompile(`\b(best practice|should i|vs\.?|versus)\b`),
	regexp.MustCompile(`\b(recommend|recommendation|advice)\b`),
	regexp.MustCompile(`\b(pros and cons|trade[- ]?offs?)\b`),
}

var techTermRe = regexp.MustCompile(`\b(api|sdk|http|grpc|sql|nosql|redis|kafka|docker|kubernetes|k8s|aws|gcp|azure|oauth|jwt|graphql|rest|microservice|lambda|s3|postgres|mysql|mongo|terraform|ci/cd|webhook)\b`)

// ContextFlags carries the C12-visible signals the scorer needs beyond
// the normalized query text.
type ContextFlags struct {
	WorkspaceFilesPresent bool
	HasFileReferences     bool
}

// Score computes a confidence in [0,1] that this query is answerable by
// a canned static response, per the weighted-sum design: positive
// signals add, negative signals subtract, and the result is clamped.
func Score(nq NormalizedQuery, flags ContextFlags, w ConfidenceWeights) float64 {
	score := 0.0

	patternHits := 0.0
	for _, p := range commonQuestionPatterns {
		if p.MatchString(nq.Normalized) {
			patternHits += w.PatternMatch
		}
	}
	if patternHits > w.PatternMatchCap {
		patternHits = w.PatternMatchCap
	}
	score += patternHits

	wordCount := len(nq.Terms)
	if wordCount > 0 && wordCount <= w.ShortQueryWords {
		score += w.ShortQuery
	}

	techMatches := techTermRe.FindAllString(nq.Normalized, -1)
	if len(techMatches) == 0 {
		score += w.NoTechTerms
	}

	if flags.WorkspaceFilesPresent {
		score -= w.WorkspaceFiles
	}
	if flags.HasFileReferences || len(nq.FileTokens) > 0 {
		score -= w.FileReferences
	}
	if len(techMatches) > w.ManyTechTermsAt {
		score -= w.ManyTechTerms
	}
	if wordCount > w.LongQueryWords {
		score -= w.LongQuery
	}

	return clamp01(score)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
