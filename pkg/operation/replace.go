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

package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/nondestruct/pkg/result"
	"github.com/walteh/nondestruct/pkg/text"
	"gitlab.com/tozd/go/errors"
)

const ReplaceName = "replace"

type replaceRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Glob string `yaml:"glob"`
}

type replaceOptions struct {
	Rules []replaceRule `yaml:"rules"`
	// shorthand for a single rule
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Glob string `yaml:"glob"`
}

// 🔄 replaceOperation rewrites literal text. A file no rule changes is left as is.
type replaceOperation struct {
	desc     result.Descriptor
	rules    []text.Rule
	replacer *text.Replacer
}

// NewReplace builds the replace operation from "rules" or a single from/to/glob.
func NewReplace(options map[string]any) (Operation, error) {
	var opts replaceOptions
	if err := decodeOptions(ReplaceName, options, &opts); err != nil {
		return nil, err
	}

	var rules []text.Rule
	if opts.From != "" {
		rules = append(rules, text.Rule{From: opts.From, To: opts.To, Glob: opts.Glob})
	}
	for _, r := range opts.Rules {
		rules = append(rules, text.Rule{From: r.From, To: r.To, Glob: r.Glob})
	}
	if len(rules) == 0 {
		return nil, errors.Errorf("%s: at least one rule is required", ReplaceName)
	}

	replacer := text.NewReplacer()
	if err := replacer.Validate(rules); err != nil {
		return nil, errors.Errorf("%s: %w", ReplaceName, err)
	}

	return &replaceOperation{
		desc:     result.Descriptor{Name: ReplaceName, Options: options},
		rules:    rules,
		replacer: replacer,
	}, nil
}

func (op *replaceOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *replaceOperation) Apply(ctx context.Context, in Input) (Output, error) {
	src, err := os.Open(in.Source)
	if err != nil {
		return Output{}, errors.Errorf("opening source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return Output{}, errors.Errorf("reading source info: %w", err)
	}

	// globs match the logical name, which later versions no longer carry
	res, err := op.replacer.Replace(ctx, src, filepath.Base(in.Original), op.rules)
	if err != nil {
		return Output{}, errors.Errorf("replacing text: %w", err)
	}

	if !res.Changed {
		return Output{Result: result.Message("no replacements")}, nil
	}

	target := TargetPath(in, "")
	if err := os.WriteFile(target, res.Modified, info.Mode().Perm()); err != nil {
		return Output{Path: target}, errors.Errorf("writing %s: %w", target, err)
	}

	return Output{
		Path:   target,
		Result: result.Message(fmt.Sprintf("replaced %d occurrences", res.Count)),
	}, nil
}
