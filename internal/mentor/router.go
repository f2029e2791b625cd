package mentor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// cacheKeyPrefixWords bounds how much of the normalized query participates
// in the cache key fingerprint, per the Response Cache's "normalized
// intent + query prefix + sorted terms" derivation.
const cacheKeyPrefixWords = 12

// ReasonGenerativeFallback marks a response served from the static bank's
// last-resort candidate because the generative path could not complete
// (breaker open, generation timeout, or generation error).
const ReasonGenerativeFallback RouteReason = "generative_fallback"

// Core composes every component (C1-C11) behind the single Answer entry
// point, mirroring the teacher's top-level agent struct that wires guard,
// memory, indexer, and llm client together behind one request method.
type Core struct {
	config *configSnapshot
	logger *zap.Logger
	metrics *Metrics

	rateLimiter *RateLimiter
	cache       *ResponseCache
	breaker     *CircuitBreaker
	staticBank  *StaticResponseBank
	templates   *templateRenderer
	generative  GenerativeClient
	audit       *auditRing

	confidenceWeights ConfidenceWeights
}

// NewCore wires up a Core from a loaded Config and a generative backend.
// Passing a nil generative client is valid for static-only deployments
// (DynamicDisabled in Config); any route that would otherwise generate
// falls straight to the static bank's last-resort candidate.
func NewCore(cfg Config, generative GenerativeClient, logger *zap.Logger) (*Core, error) {
	bank, err := LoadStaticResponseBank()
	if err != nil {
		return nil, err
	}
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	return &Core{
		config:            newConfigSnapshot(cfg),
		logger:            logger,
		metrics:           NewMetrics(),
		rateLimiter:       NewRateLimiter(cfg),
		cache:             NewResponseCache(cfg),
		breaker:           NewCircuitBreaker(cfg),
		staticBank:        bank,
		templates:         renderer,
		generative:        generative,
		audit:             newAuditRing(256),
		confidenceWeights: DefaultConfidenceWeights(),
	}, nil
}

// Metrics exposes the Core's Prometheus collector set for an HTTP handler.
func (c *Core) Metrics() *Metrics { return c.metrics }

// RecentRejections returns the last n recorded rejections/throttles, most
// recent first, for operator debugging. Never includes raw query text.
func (c *Core) RecentRejections(n int) []AuditEntry { return c.audit.Recent(n) }

// Answer runs the full pipeline: admission, validation, file resolution,
// intent classification, confidence scoring, routing, and response
// production, in that order. It never panics on malformed input — every
// rejection surfaces as a *MentorError with a closed Kind.
func (c *Core) Answer(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	cfg := c.config.Load()

	if req.CallerID == "" {
		req.CallerID = "anonymous"
	}

	if admitted, retry := c.rateLimiter.Admit(req.CallerID); !admitted {
		c.metrics.recordError(ErrThrottled)
		c.audit.record(AuditEntry{Timestamp: time.Now(), CallerID: req.CallerID, Kind: ErrThrottled, Reason: "rate_limit_exceeded"})
		return Response{}, &MentorError{
			Kind:    ErrThrottled,
			Reason:  "rate_limit_exceeded",
			RetryMS: retry.Milliseconds(),
		}
	}

	nq, err := ValidateRequest(req, cfg)
	if err != nil {
		var merr *MentorError
		if errors.As(err, &merr) {
			c.metrics.recordError(merr.Kind)
			c.audit.record(AuditEntry{Timestamp: time.Now(), CallerID: req.CallerID, Kind: merr.Kind, Reason: merr.Reason})
		}
		return Response{}, err
	}

	inputRedactions := c.scrubRequest(&req)
	nq = NormalizedQuery{Raw: req.Query, Normalized: normalizeQuery(req.Query)}
	nq.Terms, nq.FileTokens = tokenize(nq.Normalized)

	snippets := c.resolveWorkspace(req.Workspace, cfg)

	intent := ClassifyIntent(req.Intent, nq)
	flags := ContextFlags{
		WorkspaceFilesPresent: len(snippets) > 0,
		HasFileReferences:     len(req.Workspace) > 0,
	}
	confidence := Score(nq, flags, c.confidenceWeights)
	critical := ExtractCriticalTerms(req.Query, req.Context)

	route, reason := c.decideRoute(confidence, req.Flags, cfg)
	c.metrics.recordRoute(route)

	var resp Response
	switch route {
	case RouteStatic:
		if text, n, ok := c.answerStatic(intent, critical, cfg); ok {
			resp = Response{Text: text, Route: RouteStatic, Reason: reason, Redactions: n}
			break
		}
		resp, err = c.answerGenerative(ctx, req, snippets, intent, nq, critical, cfg, true, RouteDynamic, ReasonRelevanceFailed)
	case RouteHybrid:
		if text, n, ok := c.answerStatic(intent, critical, cfg); ok {
			resp = Response{Text: text, Route: RouteHybrid, Reason: reason, Redactions: n}
			break
		}
		resp, err = c.answerGenerative(ctx, req, snippets, intent, nq, critical, cfg, true, RouteDynamic, ReasonRelevanceFailed)
	default:
		resp, err = c.answerGenerative(ctx, req, snippets, intent, nq, critical, cfg, false, RouteDynamic, reason)
	}
	if err != nil {
		var merr *MentorError
		if errors.As(err, &merr) {
			c.metrics.recordError(merr.Kind)
		}
		return Response{}, err
	}

	resp.Redactions += inputRedactions
	resp.Confidence = confidence
	resp.LatencyMS = time.Since(start).Milliseconds()
	c.metrics.cacheSize.Set(float64(c.cache.Stats().Size))
	c.metrics.liveBuckets.Set(float64(c.rateLimiter.LiveBuckets()))
	c.metrics.breakerState.Set(breakerStateValue(c.breaker.Status().State))
	if resp.Redactions > 0 {
		c.metrics.redactionsTotal.Add(float64(resp.Redactions))
	}

	c.logger.Debug("answered",
		append(requestFields(req),
			zap.String("route", string(resp.Route)),
			zap.String("reason", string(resp.Reason)),
			zap.Bool("generated", resp.Generated),
			zap.Bool("cache_hit", resp.CacheHit),
			zap.Float64("confidence", confidence),
			zap.Int64("latency_ms", resp.LatencyMS),
		)...,
	)

	return resp, nil
}

// resolveWorkspace opens every caller-supplied workspace reference,
// silently dropping the ones the File Access Controller denies — a denied
// file narrows the prompt's context, it does not fail the whole request.
func (c *Core) resolveWorkspace(refs []FileReference, cfg Config) []Snippet {
	var snippets []Snippet
	for _, ref := range refs {
		snip, err := OpenWorkspaceFile(ref, cfg)
		if err != nil {
			c.logger.Debug("workspace file denied", zap.String("path", ref.Path), zap.Error(err))
			continue
		}
		snippets = append(snippets, snip)
	}
	return snippets
}

// scrubRequest runs the Secret Scanner over the query and context before
// routing, replacing req's fields with the redacted text in place and
// returning the total redaction count so every route can surface it on
// the response, not just the generated-output path.
func (c *Core) scrubRequest(req *Request) int {
	q := ScanText(req.Query)
	req.Query = q.Redacted
	count := q.Count
	if req.Context != "" {
		ctxScan := ScanText(req.Context)
		req.Context = ctxScan.Redacted
		count += ctxScan.Count
	}
	return count
}

// decideRoute applies the confidence thresholds from the external
// interface section: force_dynamic short-circuits everything else, then
// static, then hybrid, then dynamic.
func (c *Core) decideRoute(confidence float64, flags Flags, cfg Config) (RouteDecision, RouteReason) {
	if flags.ForceDynamic {
		return RouteDynamic, ReasonForceDynamic
	}
	if confidence >= cfg.StaticThreshold {
		return RouteStatic, ReasonAboveStatic
	}
	if confidence >= cfg.HybridThreshold && flags.PreferSpeed {
		return RouteHybrid, ReasonAboveHybrid
	}
	return RouteDynamic, ReasonBelowThresholds
}

// answerStatic looks up the bank candidate for intent and validates it
// against the query's critical terms. A missing candidate and a failed
// relevance gate are both reported as "no usable static answer" — the
// caller is responsible for falling through to generation either way.
// The returned text is scrubbed by the Secret Scanner before use, same
// as any generated text, and the redaction count is returned alongside.
func (c *Core) answerStatic(intent string, critical map[string]bool, cfg Config) (string, int, bool) {
	candidate, ok := c.staticBank.Lookup(intent, defaultSlot)
	if !ok {
		return "", 0, false
	}
	result := Validate(critical, candidate, cfg.RelevanceMinScore, cfg.RelevanceMinMatches)
	if !result.Passed {
		return "", 0, false
	}
	scan := ScanText(candidate)
	return scan.Redacted, scan.Count, true
}

// answerGenerative produces a response via the generative path, optionally
// through the response cache, and falls back to the static bank's
// last-resort candidate if generation cannot complete at all (breaker
// open, timeout, or backend error). It only returns a non-nil error when
// even the fallback candidate is unavailable.
func (c *Core) answerGenerative(
	ctx context.Context,
	req Request,
	snippets []Snippet,
	intent string,
	nq NormalizedQuery,
	critical map[string]bool,
	cfg Config,
	useCache bool,
	route RouteDecision,
	reason RouteReason,
) (Response, error) {
	if cfg.DynamicDisabled || c.generative == nil {
		return c.fallback(route, errors.New("dynamic path disabled"))
	}

	var redactions int
	genFn := func() (string, error) {
		text, n, err := c.renderAndGenerate(ctx, req, snippets, cfg)
		redactions = n
		return text, err
	}

	var text string
	var cacheHit bool
	var err error
	if useCache {
		tags := sortedKeys(critical)
		key := DeriveCacheKey(intent, nq, tags, cacheKeyPrefixWords)
		text, cacheHit, err = c.cache.GetOrGenerate(key, genFn)
	} else {
		text, err = genFn()
	}

	if err != nil {
		return c.fallback(route, err)
	}

	return Response{
		Text:       text,
		Route:      route,
		Reason:     reason,
		Generated:  !cacheHit,
		CacheHit:   cacheHit,
		Redactions: redactions,
	}, nil
}

// fallback serves the static bank's always-present last-resort candidate
// when the generative path cannot complete.
func (c *Core) fallback(route RouteDecision, cause error) (Response, error) {
	c.logger.Warn("generative path unavailable, serving fallback", zap.Error(cause), zap.String("route", string(route)))
	c.metrics.recordError(errKindForGenError(cause))

	text, ok := c.staticBank.LastResort()
	if !ok {
		return Response{}, wrapErr(ErrUnavailable, "no_fallback_available", cause)
	}
	return Response{Text: text, Route: route, Reason: ReasonGenerativeFallback, Generated: false}, nil
}

// renderAndGenerate builds the generation prompt from the request and
// resolved workspace snippets, runs it through the Circuit Breaker and
// Generative Client, and scrubs the result through the Secret Scanner
// before it ever reaches a cache or a caller.
func (c *Core) renderAndGenerate(ctx context.Context, req Request, snippets []Snippet, cfg Config) (string, int, error) {
	prompt, err := c.templates.Render("generate", map[string]string{
		"Query":     req.Query,
		"Context":   req.Context,
		"Workspace": workspaceText(snippets),
	})
	if err != nil {
		return "", 0, err
	}

	budget := Budget{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
	if req.Flags.PreferSpeed {
		budget.MaxTokens /= 2
	}

	genCtx, cancel := context.WithTimeout(ctx, cfg.generationTimeout())
	defer cancel()

	var raw string
	err = c.breaker.Call(func() error {
		var genErr error
		raw, genErr = c.generative.Generate(genCtx, prompt, budget)
		return genErr
	})
	if err != nil {
		return "", 0, err
	}

	scan := ScanText(raw)
	return scan.Redacted, scan.Count, nil
}

// workspaceText flattens resolved snippets into the template's Workspace
// variable.
func workspaceText(snippets []Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range snippets {
		b.WriteString(s.Path)
		b.WriteString(":\n")
		b.WriteString(s.Content)
		if s.Truncated {
			b.WriteString("\n...(truncated)")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errKindForGenError classifies a generation failure for metrics and
// logging. ErrBreakerOpen and a context deadline both surface as
// unavailable/timeout rather than a generic internal error, since both
// are expected operating conditions, not bugs.
func errKindForGenError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrBreakerOpen):
		return ErrUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return ErrGenerationTimeout
	default:
		var tmplErr *TemplateError
		if errors.As(err, &tmplErr) {
			return ErrTemplateError
		}
		return ErrGenerationError
	}
}
