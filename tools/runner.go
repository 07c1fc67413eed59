package tools

import (
	"context"
)

var (
	// NopRunner is a runner that does nothing extra.
	NopRunner = NewRunner(context.Background(), nil)
)

// Runner is what a tool sees of the invocation it runs in.
type Runner interface {
	Context() context.Context
	Report(status string)
}

type runner struct {
	ctx    context.Context
	report func(status string)
}

// NewRunner returns a new Runner. Tools run with this Runner will report status
// updates to the provided function, which may be nil.
func NewRunner(ctx context.Context, report func(status string)) Runner {
	if report == nil {
		report = func(string) {}
	}
	return &runner{ctx: ctx, report: report}
}

func (r *runner) Context() context.Context {
	return r.ctx
}

func (r *runner) Report(status string) {
	r.report(status)
}
