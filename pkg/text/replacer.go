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

// Package text applies literal text replacement rules to file content.
package text

import (
	"context"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📝 Rule replaces every occurrence of From with To.
type Rule struct {
	From string
	To   string
	// Glob limits the rule to file names it matches. Empty matches every file.
	Glob string
}

// 📊 Result describes what a Replace call changed.
type Result struct {
	Original []byte
	Modified []byte
	Count    int
	Changed  bool
	// Skipped lists the indexes of rules whose glob did not match.
	Skipped []int
}

// 🔄 Replacer applies rules in order, each seeing the output of the previous one.
type Replacer struct{}

// NewReplacer creates a new Replacer
func NewReplacer() *Replacer {
	return &Replacer{}
}

// Replace reads content and applies every rule whose glob matches name.
func (r *Replacer) Replace(ctx context.Context, content io.Reader, name string, rules []Rule) (*Result, error) {
	original, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	res := &Result{
		Original: original,
		Modified: original,
	}

	current := string(original)
	for i, rule := range rules {
		if rule.From == "" {
			continue
		}

		if rule.Glob != "" {
			matched, err := doublestar.Match(rule.Glob, name)
			if err != nil {
				return nil, errors.Errorf("rule %d: matching %q: %w", i, rule.Glob, err)
			}
			if !matched {
				zerolog.Ctx(ctx).Debug().Str("glob", rule.Glob).Str("name", name).Msg("rule skipped")
				res.Skipped = append(res.Skipped, i)
				continue
			}
		}

		n := strings.Count(current, rule.From)
		if n == 0 {
			continue
		}
		current = strings.ReplaceAll(current, rule.From, rule.To)
		res.Count += n
		res.Changed = true
	}

	res.Modified = []byte(current)
	return res, nil
}

// Validate checks that every rule has text to look for and a well formed glob.
func (r *Replacer) Validate(rules []Rule) error {
	for i, rule := range rules {
		if rule.From == "" {
			return errors.Errorf("rule %d: from is required", i)
		}
		if rule.Glob != "" && !doublestar.ValidatePattern(rule.Glob) {
			return errors.Errorf("rule %d: invalid glob %q", i, rule.Glob)
		}
	}
	return nil
}
