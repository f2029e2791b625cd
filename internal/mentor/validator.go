package mentor

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/mdombrov-33/go-promptguard/detector"
	"golang.org/x/text/unicode/norm"
)

// promptGuard is the package-level injection detector, initialized once
// at import time with pattern and statistical detectors enabled and no
// LLM judge — this keeps detection sub-millisecond on the request hot
// path, mirroring the teacher's internal/hooks/injection.go wiring.
var promptGuard = detector.New(
	detector.WithThreshold(0.6),
	detector.WithAllDetectors(),
	detector.WithMaxInputLength(MaxQueryLen+MaxContextLen),
)

// RejectKind enumerates why the Input Validator refused a request.
type RejectKind string

const (
	RejectTooLong       RejectKind = "too_long"
	RejectEmpty         RejectKind = "empty"
	RejectNullByte      RejectKind = "null_byte"
	RejectControlChar   RejectKind = "control_char"
	RejectInjection     RejectKind = "prompt_injection"
	RejectTooManyFiles  RejectKind = "too_many_workspace_files"
)

var wordRe = regexp.MustCompile(`[A-Za-z0-9_][A-Za-z0-9_.\-/]*`)
var pathLikeRe = regexp.MustCompile(`^[./]?[\w.\-]+(?:/[\w.\-]+)+\.[A-Za-z0-9]{1,8}$`)

// ValidateRequest bounds-checks and normalizes a Request. On success it
// returns the NormalizedQuery consumed downstream by C8/C9/C6 key
// derivation; on rejection it returns a MentorError(BadInput, kind).
func ValidateRequest(req Request, cfg Config) (NormalizedQuery, error) {
	if len(req.Query) == 0 {
		return NormalizedQuery{}, newErr(ErrBadInput, string(RejectEmpty))
	}
	if len(req.Query) > MaxQueryLen {
		return NormalizedQuery{}, newErr(ErrBadInput, string(RejectTooLong))
	}
	if len(req.Context) > MaxContextLen {
		return NormalizedQuery{}, newErr(ErrBadInput, string(RejectTooLong))
	}
	if len(req.Workspace) > MaxWorkspaceLen {
		return NormalizedQuery{}, newErr(ErrBadInput, string(RejectTooManyFiles))
	}

	if err := checkRawBytes(req.Query); err != nil {
		return NormalizedQuery{}, err
	}
	if err := checkRawBytes(req.Context); err != nil {
		return NormalizedQuery{}, err
	}

	combined := req.Query + "\n" + req.Context
	for _, phrase := range cfg.PromptInjectionPhrases {
		if strings.Contains(strings.ToLower(combined), phrase) {
			return NormalizedQuery{}, newErr(ErrBadInput, string(RejectInjection))
		}
	}
	result := promptGuard.Detect(context.Background(), combined)
	if !result.Safe {
		return NormalizedQuery{}, newErr(ErrBadInput, string(RejectInjection))
	}

	normalized := normalizeQuery(req.Query)
	terms, fileTokens := tokenize(normalized)

	return NormalizedQuery{
		Raw:        req.Query,
		Normalized: normalized,
		Terms:      terms,
		FileTokens: fileTokens,
	}, nil
}

// checkRawBytes rejects null bytes and control characters outside
// \t \n \r, before any normalization happens.
func checkRawBytes(s string) error {
	for _, r := range s {
		if r == 0 {
			return newErr(ErrBadInput, string(RejectNullByte))
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return newErr(ErrBadInput, string(RejectControlChar))
		}
	}
	return nil
}

// normalizeQuery applies Unicode NFC normalization, lower-casing, and
// whitespace collapse.
func normalizeQuery(q string) string {
	folded := norm.NFC.String(q)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// tokenize performs bounded tokenization, splitting out tokens that look
// like file paths (routed to C3 rather than kept as text terms).
func tokenize(normalized string) (terms []string, fileTokens []string) {
	for _, tok := range wordRe.FindAllString(normalized, -1) {
		if pathLikeRe.MatchString(tok) {
			fileTokens = append(fileTokens, tok)
			continue
		}
		terms = append(terms, tok)
	}
	return terms, fileTokens
}
