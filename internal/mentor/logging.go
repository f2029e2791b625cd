package mentor

import "go.uber.org/zap"

// newLogger builds the structured logger every Core uses, matching the
// teacher's zap.NewProduction-by-default-with-a-development-override
// idiom rather than the stdlib log package.
func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// requestFields returns the log fields safe to attach to a request-scoped
// log line: never the raw query or context text, per the no-leak
// requirement, only their sizes and the caller/session identifiers.
func requestFields(req Request) []zap.Field {
	return []zap.Field{
		zap.String("caller_id", req.CallerID),
		zap.String("session", req.Session.String()),
		zap.Int("query_len", len(req.Query)),
		zap.Int("context_len", len(req.Context)),
		zap.Int("workspace_files", len(req.Workspace)),
	}
}
