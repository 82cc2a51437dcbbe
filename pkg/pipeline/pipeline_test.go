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

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/nondestruct/pkg/config"
	"github.com/walteh/nondestruct/pkg/operation"
	"github.com/walteh/nondestruct/pkg/result"
	"github.com/walteh/nondestruct/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockOperation is a mock implementation of operation.Operation
type MockOperation struct {
	mock.Mock
}

func (m *MockOperation) Descriptor() result.Descriptor {
	args := m.Called()
	return args.Get(0).(result.Descriptor)
}

func (m *MockOperation) Apply(ctx context.Context, in operation.Input) (operation.Output, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(operation.Output), args.Error(1)
}

// writeOp writes a new version with ext, recording the source it saw.
type writeOp struct {
	name string
	ext  string
	mu   sync.Mutex
	seen []string
	fail func(in operation.Input) error
}

func (w *writeOp) Descriptor() result.Descriptor {
	return result.Descriptor{Name: w.name, Options: map[string]any{"ext": w.ext}}
}

func (w *writeOp) Apply(ctx context.Context, in operation.Input) (operation.Output, error) {
	w.mu.Lock()
	w.seen = append(w.seen, in.Source)
	w.mu.Unlock()

	if w.fail != nil {
		if err := w.fail(in); err != nil {
			return operation.Output{}, err
		}
	}

	target := operation.TargetPath(in, w.ext)
	if err := os.WriteFile(target, []byte(w.name), 0o644); err != nil {
		return operation.Output{}, err
	}
	return operation.Output{Path: target, Result: result.Message(w.name + " done")}, nil
}

// 🧪 setupFiles creates versioned files with the given names
func setupFiles(t *testing.T, names ...string) (context.Context, []*version.File) {
	t.Helper()

	dir := t.TempDir()
	files := make([]*version.File, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("content of "+name), 0o644))
		f, err := version.New(p)
		require.NoError(t, err)
		files = append(files, f)
	}

	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background()), files
}

func TestApplyToScaleThenConvert(t *testing.T) {
	ctx, files := setupFiles(t, "photo.jpg")
	f := files[0]

	scale := &writeOp{name: "scale", ext: ".jpg"}
	convert := &writeOp{name: "convert", ext: ".tiff"}

	require.NoError(t, New(scale, convert).ApplyTo(ctx, f))

	versions := f.Versions()
	require.Len(t, versions, 2)
	assert.True(t, strings.HasSuffix(versions[1], ".tiff"))
	assert.Equal(t, versions[1], f.Current())

	assert.Equal(t, []string{f.Original()}, scale.seen)
	assert.Equal(t, []string{versions[0]}, convert.seen, "later operations see the output of earlier ones")
}

func TestApplyToFailFast(t *testing.T) {
	ctx, files := setupFiles(t, "photo.jpg")
	f := files[0]

	first := &writeOp{name: "scale", ext: ".jpg"}
	broken := &writeOp{name: "convert", ext: ".tiff", fail: func(in operation.Input) error {
		return errors.New("unsupported format")
	}}
	never := &MockOperation{}
	never.On("Descriptor").Return(result.Descriptor{Name: "never"})

	err := New(first, broken, never).ApplyTo(ctx, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, version.ErrFailedModification)
	assert.Contains(t, err.Error(), "step 1 (convert)")
	assert.Contains(t, err.Error(), "unsupported format")

	never.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	assert.NoDirExists(t, f.WorkDir())
	assert.Equal(t, 0, f.History().Len())
	assert.Equal(t, f.Original(), f.Current())
}

func TestApplyToEmptyPipeline(t *testing.T) {
	ctx, files := setupFiles(t, "photo.jpg")

	require.NoError(t, New().ApplyTo(ctx, files[0]))
	assert.Empty(t, files[0].Versions())
}

func TestBatchApplyIsolatesFailures(t *testing.T) {
	for _, limit := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("limit_%d", limit), func(t *testing.T) {
			ctx, files := setupFiles(t, "a.txt", "b.txt", "c.txt")

			scale := &writeOp{name: "scale", ext: ".txt"}
			picky := &writeOp{name: "convert", ext: ".md", fail: func(in operation.Input) error {
				if filepath.Base(in.Original) == "b.txt" {
					return errors.New("b is cursed")
				}
				return nil
			}}

			outcomes := New(scale, picky).WithLimit(limit).BatchApply(ctx, files)
			require.Len(t, outcomes, 3)

			for i, o := range outcomes {
				assert.Same(t, files[i], o.File, "outcomes line up with inputs")
			}

			for _, i := range []int{0, 2} {
				require.NoError(t, outcomes[i].Err)
				assert.Len(t, files[i].Versions(), 2)
				assert.Equal(t, ".md", filepath.Ext(files[i].Current()))
				assert.DirExists(t, files[i].WorkDir())
			}

			require.Error(t, outcomes[1].Err)
			assert.ErrorIs(t, outcomes[1].Err, version.ErrFailedModification)
			assert.Contains(t, outcomes[1].Err.Error(), "b is cursed")
			assert.NoDirExists(t, files[1].WorkDir())
			assert.Equal(t, 0, files[1].History().Len())

			failed := Failed(outcomes)
			require.Len(t, failed, 1)
			assert.Same(t, files[1], failed[0].File)
		})
	}
}

func TestOperationsReturnsCopy(t *testing.T) {
	a := &writeOp{name: "a"}
	b := &writeOp{name: "b"}
	p := New(a, b)

	ops := p.Operations()
	ops[0] = b
	assert.Same(t, a, p.Operations()[0].(*writeOp))
	assert.Len(t, p.WithLimit(3).Operations(), 2)
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string) *config.Config
		wantErr error
		check   func(t *testing.T, p *Pipeline)
	}{
		{
			name: "builtins_and_manifests",
			setup: func(t *testing.T, dir string) *config.Config {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "probe.yaml"), []byte("name: probe\ncommand: [echo, hi]\n"), 0o644))
				return &config.Config{
					Sources: []string{dir},
					Steps: []config.Step{
						{Name: "tags", Options: map[string]any{"of": "original", "capture": "dropped"}},
						{Name: "probe"},
						{Name: "compress", Options: map[string]any{"level": "fastest"}},
					},
					Concurrency: 2,
				}
			},
			check: func(t *testing.T, p *Pipeline) {
				ops := p.Operations()
				require.Len(t, ops, 3)
				assert.Equal(t, "tags", ops[0].Descriptor().Name)
				assert.Equal(t, result.CaptureDropped, ops[0].Descriptor().Capture)
				assert.Equal(t, "probe", ops[1].Descriptor().Name)
				assert.Equal(t, "compress", ops[2].Descriptor().Name)
				assert.Equal(t, 2, p.limit)
			},
		},
		{
			name: "unknown_operation",
			setup: func(t *testing.T, dir string) *config.Config {
				return &config.Config{Sources: []string{dir}, Steps: []config.Step{{Name: "scale"}}}
			},
			wantErr: operation.ErrSourceFile,
		},
		{
			name: "missing_source_directory",
			setup: func(t *testing.T, dir string) *config.Config {
				return &config.Config{Sources: []string{filepath.Join(dir, "gone")}, Steps: []config.Step{{Name: "checksum"}}}
			},
			wantErr: operation.ErrSourceDirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.setup(t, t.TempDir())
			p, err := FromConfig(context.Background(), cfg, operation.NewDefaultRegistry())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestEndToEndWithBuiltins(t *testing.T) {
	ctx, files := setupFiles(t, "notes.txt")
	f := files[0]

	reg := operation.NewDefaultRegistry()
	p, err := FromConfig(ctx, &config.Config{Steps: []config.Step{
		{Name: "tags", Options: map[string]any{"of": "original", "capture": "dropped"}},
		{Name: "replace", Options: map[string]any{"from": "content", "to": "body"}},
		{Name: "compress"},
		{Name: "checksum"},
	}}, reg)
	require.NoError(t, err)

	require.NoError(t, p.ApplyTo(ctx, f))
	assert.Len(t, f.Versions(), 2)
	assert.True(t, strings.HasSuffix(f.Current(), ".txt.zst"))

	dropped := f.History().CapturedDataWith(result.CaptureDropped)
	require.Len(t, dropped, 1)
	assert.Equal(t, ".txt", dropped[0].Data["extension"])

	inspected := f.History().CapturedDataWith(result.CaptureInspected)
	require.Len(t, inspected, 1)
	assert.Equal(t, f.Current(), inspected[0].Version)

	written, err := f.Finalize(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, ".zst", filepath.Ext(written))
	assert.FileExists(t, written)
	assert.FileExists(t, filepath.Join(filepath.Dir(written), "notes.txt"))
	assert.NoDirExists(t, f.WorkDir())
}
