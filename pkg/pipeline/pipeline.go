// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline applies an ordered list of operations to versioned files.
package pipeline

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/nondestruct/pkg/config"
	"github.com/walteh/nondestruct/pkg/operation"
	"github.com/walteh/nondestruct/pkg/version"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔗 Pipeline is an ordered list of operations. Order is application order.
// A Pipeline holds no per-file state and may be reused across files.
type Pipeline struct {
	ops   []operation.Operation
	limit int
}

// 🏭 New creates a pipeline from ops
func New(ops ...operation.Operation) *Pipeline {
	return &Pipeline{ops: slices.Clone(ops)}
}

// 🏭 FromConfig resolves every step of cfg through reg. Source directories in
// cfg are added to reg first, in order.
func FromConfig(ctx context.Context, cfg *config.Config, reg *operation.Registry) (*Pipeline, error) {
	for _, dir := range cfg.Sources {
		if err := reg.AddSource(ctx, dir); err != nil {
			return nil, err
		}
	}

	ops := make([]operation.Operation, 0, len(cfg.Steps))
	for i, step := range cfg.Steps {
		op, err := reg.Resolve(step.Name, step.Options)
		if err != nil {
			return nil, errors.Errorf("steps[%d]: %w", i, err)
		}
		ops = append(ops, op)
	}

	return New(ops...).WithLimit(cfg.Concurrency), nil
}

// Operations returns the operations in application order.
func (p *Pipeline) Operations() []operation.Operation {
	return slices.Clone(p.ops)
}

// WithLimit returns a copy of p that runs at most n files at once in
// BatchApply. Zero or less means no limit.
func (p *Pipeline) WithLimit(n int) *Pipeline {
	return &Pipeline{ops: p.ops, limit: n}
}

// 🏃 ApplyTo runs every operation against f in order and stops at the first
// failure, by which point f has already been rolled back.
func (p *Pipeline) ApplyTo(ctx context.Context, f *version.File) error {
	logger := zerolog.Ctx(ctx).With().Str("original", f.Original()).Logger()

	for i, op := range p.ops {
		logger.Debug().Int("step", i).Str("operation", op.Descriptor().String()).Msg("applying operation")

		if err := f.Modify(ctx, operation.Invoker(op)); err != nil {
			logger.Debug().Int("step", i).Err(err).Msg("pipeline stopped")
			return errors.Errorf("step %d (%s): %w", i, op.Descriptor().Name, err)
		}
	}

	logger.Debug().Str("current", f.Current()).Int("versions", len(f.Versions())).Msg("pipeline applied")
	return nil
}

// 📦 Outcome is the result of applying the pipeline to one file.
type Outcome struct {
	File *version.File
	Err  error
}

// ⚡ BatchApply applies the pipeline to every file concurrently and returns
// once all of them are done. Outcomes line up with files by index. A failing
// file never cancels the others.
//
// Each file must be distinct; a File is not safe for concurrent use.
func (p *Pipeline) BatchApply(ctx context.Context, files []*version.File) []Outcome {
	outcomes := make([]Outcome, len(files))

	var g errgroup.Group
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	for i, f := range files {
		g.Go(func() error {
			outcomes[i] = Outcome{File: f, Err: p.ApplyTo(ctx, f)}
			return nil
		})
	}

	_ = g.Wait()

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Int("failed", len(Failed(outcomes))).Msg("batch applied")

	return outcomes
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
