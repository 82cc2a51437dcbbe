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
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/nondestruct/pkg/result"
	"github.com/walteh/nondestruct/pkg/version"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🎯 Operation transforms or inspects one version of a file.
type Operation interface {
	// Descriptor names the operation and the options it was configured with
	Descriptor() result.Descriptor
	// Apply reads in.Source and, when modifying, writes a new file into in.Dir
	Apply(ctx context.Context, in Input) (Output, error)
}

// 📥 Input is what an operation sees.
type Input struct {
	// Source is the current version
	Source string
	// Dir is the working directory new versions must be written to
	Dir string
	// Original is the untouched file the session started from
	Original string
}

// 📤 Output is what an operation hands back. An empty Path means nothing was modified.
type Output struct {
	Path   string
	Result result.Raw
}

// 🏭 Factory builds an operation from its configured options.
type Factory func(options map[string]any) (Operation, error)

// 🏃 Invoke runs op and returns the new path and its normalized result.
//
// Errors and panics become a failed result whose log holds the error with
// its stack. Anything the operation wrote into in.Dir before failing is removed.
func Invoke(ctx context.Context, op Operation, in Input) (string, *result.OperationResult) {
	desc := op.Descriptor()
	logger := zerolog.Ctx(ctx).With().Str("operation", desc.Name).Str("source", in.Source).Logger()

	before, scanned := listDir(in.Dir)

	out, err := safeApply(ctx, op, in)
	if err != nil {
		removePartial(&logger, in, out.Path, before, scanned)
		logger.Debug().Err(err).Msg("operation failed")
		return "", result.New(desc, false, result.List{out.Result, result.Failure{Err: err}})
	}

	logger.Debug().Str("output", out.Path).Msg("operation applied")
	return out.Path, result.New(desc, true, out.Result)
}

// 🔌 Invoker adapts op to the callback version.File.Modify expects.
func Invoker(op Operation) version.Invoker {
	return func(ctx context.Context, current, dir, original string) (string, *result.OperationResult) {
		return Invoke(ctx, op, Input{Source: current, Dir: dir, Original: original})
	}
}

func safeApply(ctx context.Context, op Operation, in Input) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("operation %s panicked: %v", op.Descriptor().Name, r)
		}
	}()
	return op.Apply(ctx, in)
}

func listDir(dir string) (map[string]bool, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, true
}

// removePartial deletes what a failed operation left in the working directory.
// The source and the original are never touched.
func removePartial(logger *zerolog.Logger, in Input, path string, before map[string]bool, scanned bool) {
	protected := func(p string) bool {
		return p == in.Source || p == in.Original
	}

	if path != "" && !protected(path) && filepath.Dir(path) == filepath.Clean(in.Dir) {
		if err := os.RemoveAll(path); err == nil {
			logger.Debug().Str("path", path).Msg("removed partial output")
		}
	}

	if !scanned {
		return
	}
	after, ok := listDir(in.Dir)
	if !ok {
		return
	}
	for name := range after {
		if before[name] {
			continue
		}
		p := filepath.Join(in.Dir, name)
		if protected(p) {
			continue
		}
		if err := os.RemoveAll(p); err == nil {
			logger.Debug().Str("path", p).Msg("removed partial output")
		}
	}
}

// 📝 TargetPath returns a fresh file name in the working directory. An empty
// ext keeps the extension of the source.
func TargetPath(in Input, ext string) string {
	if ext == "" {
		ext = filepath.Ext(in.Source)
	}
	return filepath.Join(in.Dir, stem(in.Original)+"_"+uuid.NewString()[:8]+ext)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// decodeOptions maps loosely typed options onto a struct through its yaml tags.
// Unknown keys are rejected.
func decodeOptions(name string, options map[string]any, into any) error {
	if len(options) == 0 {
		return nil
	}

	raw, err := yaml.Marshal(options)
	if err != nil {
		return errors.Errorf("encoding %s options: %w", name, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil {
		return errors.Errorf("decoding %s options: %w", name, err)
	}
	return nil
}

func parseCapture(name, value string, fallback result.CaptureTag) (result.CaptureTag, error) {
	if value == "" {
		return fallback, nil
	}
	tag, ok := result.ParseCaptureTag(value)
	if !ok {
		return result.CaptureNone, errors.Errorf("%s: unknown capture tag %q", name, value)
	}
	return tag, nil
}
