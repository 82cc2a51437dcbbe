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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📜 Manifest describes an operation backed by an external command.
//
//	name: scale
//	command: [magick, "{source}", -resize, "{width}x{height}", "{output}"]
//	output: "{ext}"
//	options:
//	  width: 1280
//	  height: 960
//
// Placeholders in command and output are {source}, {dir}, {original},
// {output}, {stem}, {ext} and any option key. An empty output makes the
// operation non-modifying. When stdout is a JSON object it is captured as
// data; otherwise each non-empty stdout line becomes a log message.
type Manifest struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Command     []string       `yaml:"command"`
	Output      string         `yaml:"output"`
	Capture     string         `yaml:"capture"`
	Timeout     time.Duration  `yaml:"timeout"`
	Options     map[string]any `yaml:"options"`

	capture result.CaptureTag
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks required fields and resolves the capture tag.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	if len(m.Command) == 0 || m.Command[0] == "" {
		return errors.New("command is required")
	}
	if m.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}

	capture, err := parseCapture(m.Name, m.Capture, result.CaptureNone)
	if err != nil {
		return err
	}
	m.capture = capture
	return nil
}

// Factory returns a factory merging configured options over the manifest defaults.
func (m *Manifest) Factory() Factory {
	return func(options map[string]any) (Operation, error) {
		merged := maps.Clone(m.Options)
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, options)

		return &commandOperation{
			manifest: m,
			options:  merged,
			desc:     result.Descriptor{Name: m.Name, Options: merged, Capture: m.capture},
		}, nil
	}
}

// ⚙️ commandOperation runs a manifest command against one version.
type commandOperation struct {
	manifest *Manifest
	options  map[string]any
	desc     result.Descriptor
}

func (op *commandOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *commandOperation) Apply(ctx context.Context, in Input) (Output, error) {
	values := make(map[string]string, len(op.options)+6)
	for k, v := range op.options {
		values[k] = fmt.Sprint(v)
	}
	values["source"] = in.Source
	values["dir"] = in.Dir
	values["original"] = in.Original
	values["stem"] = stem(in.Original)
	values["ext"] = filepath.Ext(in.Source)

	var target string
	if op.manifest.Output != "" {
		target = TargetPath(in, placeholders(values).Replace(op.manifest.Output))
	}
	values["output"] = target
	expand := placeholders(values)

	args := make([]string, len(op.manifest.Command))
	for i, a := range op.manifest.Command {
		args[i] = expand.Replace(a)
	}

	if op.manifest.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, op.manifest.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = in.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().Str("operation", op.manifest.Name).Strs("args", args).Msg("running command")

	if err := cmd.Run(); err != nil {
		var log result.Raw
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			log = result.Message(msg)
		}
		return Output{Path: target, Result: log}, errors.Errorf("running %s: %w", args[0], err)
	}

	return Output{Path: target, Result: parseStdout(stdout.Bytes())}, nil
}

func placeholders(values map[string]string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

func parseStdout(out []byte) result.Raw {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return result.Absent{}
	}

	if trimmed[0] == '{' {
		var data map[string]any
		if err := json.Unmarshal(trimmed, &data); err == nil {
			return result.Data(data)
		}
	}

	var list result.List
	for _, line := range strings.Split(string(trimmed), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			list = append(list, result.Message(line))
		}
	}
	return list
}
