// Package mentor implements the Mentor Response Core: the hybrid
// static/generative advisory pipeline described in the package's design
// documents. It owns no transport, no GitHub metadata, and no persistence —
// callers hand it a Request and get back a Response or an error.
package mentor

import (
	"time"

	"github.com/google/uuid"
)

// Quality is the caller's latency/quality preference.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityHigh     Quality = "high"
)

// Flags carries per-request routing preferences.
type Flags struct {
	ForceDynamic bool
	PreferSpeed  bool
	Quality      Quality
}

// FileReference is a caller-supplied workspace file pointer, not yet
// resolved. Resolution and policy enforcement happen in the File Access
// Controller (C3).
type FileReference struct {
	Path string
}

// Request is one inbound mentor_query call.
type Request struct {
	Query     string
	Intent    string
	Context   string
	Workspace []FileReference
	Session   uuid.UUID
	CallerID  string
	Flags     Flags
	Deadline  time.Time
}

// Bounds enforced on Request per the data model.
const (
	MaxQueryLen     = 5000
	MaxContextLen   = 5000
	MaxWorkspaceLen = 32
)

// Snippet is a bounded, truncation-marked read of a workspace file,
// produced by the File Access Controller (C3).
type Snippet struct {
	Path       string
	Content    string
	Truncated  bool
	ByteLength int
}

// NormalizedQuery is the output of the Input Validator (C2): NFC-folded,
// lower-cased, whitespace-collapsed text plus the terms extracted from it.
// It is request-scoped and never persisted.
type NormalizedQuery struct {
	Raw        string
	Normalized string
	Terms      []string
	FileTokens []string
}

// CacheKey is the deterministic digest used by the Response Cache (C6).
type CacheKey string

// CacheEntry is one stored response plus its lifecycle bookkeeping.
type CacheEntry struct {
	Key       CacheKey
	Response  string
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// RouteDecision is the Hybrid Router's (C12) choice of response path.
type RouteDecision string

const (
	RouteStatic  RouteDecision = "STATIC"
	RouteHybrid  RouteDecision = "HYBRID"
	RouteDynamic RouteDecision = "DYNAMIC"
)

// RouteReason documents why a RouteDecision was made, for logging and tests.
type RouteReason string

const (
	ReasonForceDynamic     RouteReason = "force_dynamic"
	ReasonAboveStatic      RouteReason = "confidence_above_static_threshold"
	ReasonAboveHybrid      RouteReason = "confidence_above_hybrid_threshold_prefer_speed"
	ReasonBelowThresholds  RouteReason = "confidence_below_thresholds"
	ReasonRelevanceFailed  RouteReason = "relevance_gate_failed"
	ReasonNoStaticCandiate RouteReason = "no_static_candidate"
)

// RelevanceResult is the Relevance Validator's (C9) verdict on a candidate
// static response.
type RelevanceResult struct {
	Score         float64
	MatchedTerms  map[string]bool
	RequiredTerms map[string]bool
	Passed        bool
}

// Response is returned to the caller on success.
type Response struct {
	Text        string
	Route       RouteDecision
	Reason      RouteReason
	Generated   bool
	CacheHit    bool
	LatencyMS   int64
	Confidence  float64
	Redactions  int
}
