package idsite

import "context"

type outcomeKey struct{}

// WithOutcome stores a verified callback outcome inside the context for
// downstream consumers, typically HTTP handlers past the callback endpoint.
func WithOutcome(ctx context.Context, outcome *Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, outcome)
}

// OutcomeFromContext retrieves an outcome previously stored in the context.
func OutcomeFromContext(ctx context.Context) (*Outcome, bool) {
	if ctx == nil {
		return nil, false
	}
	outcome, ok := ctx.Value(outcomeKey{}).(*Outcome)
	return outcome, ok
}
