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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔧 Step is one operation of the pipeline
type Step struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

func (s Step) String() string {
	return s.Name
}

// 📚 Config describes a pipeline and the files it runs over
type Config struct {
	Sources      []string `json:"sources,omitempty" yaml:"sources,omitempty"`             // Directories holding operation manifests
	Inputs       []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`               // Doublestar globs selecting files
	Steps        []Step   `json:"steps" yaml:"steps"`                                     // Operations, in application order
	Overwrite    bool     `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`         // Replace originals on finalize
	Suffix       string   `json:"suffix,omitempty" yaml:"suffix,omitempty"`               // Fixed suffix for kept originals
	Concurrency  int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`     // Batch limit, 0 is unlimited
	KeepVersions bool     `json:"keep_versions,omitempty" yaml:"keep_versions,omitempty"` // Skip finalize

	location string
}

// Location returns the file the config was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file. Relative sources and inputs
// are resolved against the file's directory.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs
	cfg.resolve(filepath.Dir(abs))

	return cfg, nil
}

func (cfg *Config) resolve(base string) {
	for i, s := range cfg.Sources {
		if !filepath.IsAbs(s) {
			cfg.Sources[i] = filepath.Join(base, s)
		}
	}
	for i, in := range cfg.Inputs {
		if !filepath.IsAbs(in) {
			cfg.Inputs[i] = filepath.Join(doublestar.EscapeMeta(base), in)
		}
	}
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if len(cfg.Steps) == 0 {
		return errors.Errorf("at least one step is required")
	}
	for i, s := range cfg.Steps {
		if strings.TrimSpace(s.Name) == "" {
			return errors.Errorf("steps[%d]: name is required", i)
		}
	}
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative")
	}
	if strings.ContainsAny(cfg.Suffix, `/\`) {
		return errors.Errorf("suffix %q must not contain path separators", cfg.Suffix)
	}
	for i, in := range cfg.Inputs {
		if !doublestar.ValidatePathPattern(in) {
			return errors.Errorf("inputs[%d]: invalid pattern %q", i, in)
		}
	}

	for i := range cfg.Sources {
		cfg.Sources[i] = filepath.Clean(cfg.Sources[i])
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	names := make([]string, len(cfg.Steps))
	for i, s := range cfg.Steps {
		names[i] = s.Name
	}
	mode := "keep"
	if cfg.Overwrite {
		mode = "overwrite"
	}
	return fmt.Sprintf("%s [%s]", strings.Join(names, " -> "), mode)
}
