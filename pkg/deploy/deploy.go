// Package deploy runs tagged deploy functions against a network and records
// what they deploy.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// TagAll is carried by every deploy function that belongs to a full deployment
const TagAll = "all"

// ErrDuplicateFunc is returned when two deploy functions share a name
var ErrDuplicateFunc = errors.New("duplicate deploy function")

// Func is a named deploy step
type Func struct {
	Name string
	Tags []string
	Run  func(ctx context.Context, env *Env) error
}

// Matches reports whether f carries one of tags. No tags matches everything.
func (f Func) Matches(tags ...string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if slices.Contains(f.Tags, tag) {
			return true
		}
	}
	return false
}

// Runner runs deploy functions in registration order
type Runner struct {
	funcs  []Func
	logger *zap.Logger
}

// NewRunner creates a runner with funcs registered in order
func NewRunner(logger *zap.Logger, funcs ...Func) (*Runner, error) {
	r := &Runner{logger: logger}
	for _, f := range funcs {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends f to the run order
func (r *Runner) Register(f Func) error {
	if f.Name == "" || f.Run == nil {
		return fmt.Errorf("deploy function needs a name and a body")
	}
	for _, existing := range r.funcs {
		if existing.Name == f.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateFunc, f.Name)
		}
	}
	r.funcs = append(r.funcs, f)
	return nil
}

// Funcs returns the registered functions in order
func (r *Runner) Funcs() []Func {
	return slices.Clone(r.funcs)
}

// Run runs every function matching tags and returns the names that ran.
// The first error stops the run.
func (r *Runner) Run(ctx context.Context, env *Env, tags ...string) ([]string, error) {
	var ran []string
	for _, f := range r.funcs {
		if !f.Matches(tags...) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ran, err
		}

		r.logger.Info("Running deploy function",
			zap.String("name", f.Name),
			zap.String("network", env.Network),
			zap.Strings("tags", f.Tags))

		if err := f.Run(ctx, env); err != nil {
			r.logger.Error("Deploy function failed", zap.String("name", f.Name), zap.Error(err))
			return ran, fmt.Errorf("deploy function %s: %w", f.Name, err)
		}
		ran = append(ran, f.Name)
	}

	if len(ran) == 0 {
		r.logger.Warn("No deploy function matched", zap.Strings("tags", tags))
	}
	return ran, nil
}
