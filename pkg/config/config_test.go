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
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		wantErr     bool
		errContains string
		check       func(t *testing.T, dir string, cfg *Config)
	}{
		{
			name: "valid_yaml",
			file: "pipeline.yaml",
			config: `
sources:
  - ops
  - /opt/nondestruct/ops
inputs:
  - "photos/**/*.jpg"
steps:
  - name: tags
    options:
      of: original
      capture: dropped
  - name: compress
    options:
      level: best
  - name: checksum
overwrite: true
suffix: edited
concurrency: 4
keep_versions: true
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, []string{filepath.Join(dir, "ops"), "/opt/nondestruct/ops"}, cfg.Sources, "relative sources resolve against the file")
				assert.Equal(t, []string{filepath.Join(dir, "photos/**/*.jpg")}, cfg.Inputs)
				require.Len(t, cfg.Steps, 3, "should have 3 steps")
				assert.Equal(t, "tags", cfg.Steps[0].Name)
				assert.Equal(t, map[string]any{"of": "original", "capture": "dropped"}, cfg.Steps[0].Options)
				assert.Equal(t, map[string]any{"level": "best"}, cfg.Steps[1].Options)
				assert.Nil(t, cfg.Steps[2].Options)
				assert.True(t, cfg.Overwrite)
				assert.Equal(t, "edited", cfg.Suffix)
				assert.Equal(t, 4, cfg.Concurrency)
				assert.True(t, cfg.KeepVersions)
				assert.Equal(t, filepath.Join(dir, "pipeline.yaml"), cfg.Location())
				assert.Equal(t, "tags -> compress -> checksum [overwrite]", cfg.String())
			},
		},
		{
			name: "valid_json",
			file: "pipeline.json",
			config: `{
				"inputs": ["*.txt"],
				"steps": [
					{"name": "replace", "options": {"rules": [{"from": "a", "to": "b"}]}},
					{"name": "compress", "options": {"level": "fastest"}}
				],
				"concurrency": 2
			}`,
			check: func(t *testing.T, dir string, cfg *Config) {
				require.Len(t, cfg.Steps, 2)
				assert.Equal(t, []any{map[string]any{"from": "a", "to": "b"}}, cfg.Steps[0].Options["rules"])
				assert.Equal(t, 2, cfg.Concurrency)
				assert.False(t, cfg.Overwrite)
				assert.Equal(t, "replace -> compress [keep]", cfg.String())
			},
		},
		{
			name: "valid_hcl",
			file: "pipeline.hcl",
			config: `
inputs      = ["photos/*.jpg"]
suffix      = "small"
concurrency = 3

step "tags" {
  options = {
    of      = "original"
    capture = "dropped"
  }
}

step "compress" {
  options = { level = "better", workers = 2, ratio = 0.5, tags = ["a", "b"] }
}

step "checksum" {}
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				require.Len(t, cfg.Steps, 3)
				assert.Equal(t, "tags", cfg.Steps[0].Name)
				assert.Equal(t, map[string]any{"of": "original", "capture": "dropped"}, cfg.Steps[0].Options)
				assert.Equal(t, map[string]any{
					"level":   "better",
					"workers": int64(2),
					"ratio":   0.5,
					"tags":    []any{"a", "b"},
				}, cfg.Steps[1].Options)
				assert.Nil(t, cfg.Steps[2].Options)
				assert.Equal(t, "small", cfg.Suffix)
				assert.Equal(t, 3, cfg.Concurrency)
				assert.Equal(t, []string{filepath.Join(dir, "photos/*.jpg")}, cfg.Inputs)
			},
		},
		{
			name:        "no_steps",
			file:        "pipeline.yaml",
			config:      "inputs: ['*.jpg']\n",
			wantErr:     true,
			errContains: "at least one step is required",
		},
		{
			name:        "unnamed_step",
			file:        "pipeline.yaml",
			config:      "steps:\n  - options: {a: 1}\n",
			wantErr:     true,
			errContains: "steps[0]: name is required",
		},
		{
			name:        "negative_concurrency",
			file:        "pipeline.json",
			config:      `{"steps": [{"name": "checksum"}], "concurrency": -1}`,
			wantErr:     true,
			errContains: "concurrency must not be negative",
		},
		{
			name:        "suffix_with_separator",
			file:        "pipeline.yaml",
			config:      "steps: [{name: checksum}]\nsuffix: a/b\n",
			wantErr:     true,
			errContains: "path separators",
		},
		{
			name:        "unknown_yaml_field",
			file:        "pipeline.yaml",
			config:      "steps: [{name: checksum}]\nparallel: true\n",
			wantErr:     true,
			errContains: "parallel",
		},
		{
			name:        "unknown_json_field",
			file:        "pipeline.json",
			config:      `{"steps": [{"name": "checksum"}], "parallel": true}`,
			wantErr:     true,
			errContains: "parallel",
		},
		{
			name:        "hcl_options_not_object",
			file:        "pipeline.hcl",
			config:      "step \"compress\" {\n  options = \"best\"\n}\n",
			wantErr:     true,
			errContains: "options must be an object",
		},
		{
			name:        "invalid_hcl",
			file:        "pipeline.hcl",
			config:      "step {",
			wantErr:     true,
			errContains: "parsing HCL",
		},
		{
			name:        "unsupported_extension",
			file:        "pipeline.toml",
			config:      "steps = []",
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o644))

			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
			cfg, err := Load(ctx, path)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			tt.check(t, dir, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
