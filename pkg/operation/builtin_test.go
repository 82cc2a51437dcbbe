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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/nondestruct/pkg/metadata"
	"github.com/walteh/nondestruct/pkg/result"
	"github.com/walteh/nondestruct/pkg/version"
)

func resolve(t *testing.T, name string, options map[string]any) Operation {
	t.Helper()
	op, err := NewDefaultRegistry().Resolve(name, options)
	require.NoError(t, err)
	return op
}

func TestReplaceOperation(t *testing.T) {
	tests := []struct {
		name        string
		options     map[string]any
		wantContent string
		wantLog     string
		modifying   bool
	}{
		{
			name:        "single_rule_shorthand",
			options:     map[string]any{"from": "world", "to": "there"},
			wantContent: "hello there",
			wantLog:     "replaced 1 occurrences",
			modifying:   true,
		},
		{
			name: "rules_list_with_globs",
			options: map[string]any{"rules": []any{
				map[string]any{"from": "hello", "to": "goodbye", "glob": "*.txt"},
				map[string]any{"from": "world", "to": "moon", "glob": "*.md"},
			}},
			wantContent: "goodbye world",
			wantLog:     "replaced 1 occurrences",
			modifying:   true,
		},
		{
			name:    "nothing_to_replace",
			options: map[string]any{"from": "absent", "to": "x"},
			wantLog: "no replacements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, in := setupTest(t)
			op := resolve(t, ReplaceName, tt.options)

			path, res := Invoke(ctx, op, in)
			require.True(t, res.Success())
			require.Len(t, res.Log(), 1)
			assert.Equal(t, tt.wantLog, res.Log()[0].String())

			if !tt.modifying {
				assert.Empty(t, path)
				return
			}
			assert.Equal(t, in.Dir, filepath.Dir(path))
			assert.Equal(t, ".txt", filepath.Ext(path))
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(content))
			assert.Equal(t, tt.options, op.Descriptor().Options)
		})
	}
}

func TestReplaceOptionErrors(t *testing.T) {
	reg := NewDefaultRegistry()

	_, err := reg.Resolve(ReplaceName, nil)
	assert.ErrorContains(t, err, "at least one rule")

	_, err = reg.Resolve(ReplaceName, map[string]any{"rules": []any{map[string]any{"to": "x"}}})
	assert.ErrorContains(t, err, "from is required")

	_, err = reg.Resolve(ReplaceName, map[string]any{"from": "a", "with": "b"})
	assert.ErrorContains(t, err, "with")
}

func TestCompressRoundTrip(t *testing.T) {
	ctx, in := setupTest(t)
	require.NoError(t, os.Remove(in.Dir))

	f, err := version.New(in.Original)
	require.NoError(t, err)

	require.NoError(t, f.Modify(ctx, Invoker(resolve(t, CompressName, map[string]any{"level": "best"}))))
	compressed := f.Current()
	assert.True(t, strings.HasSuffix(compressed, ".txt.zst"))

	require.NoError(t, f.Modify(ctx, Invoker(resolve(t, DecompressName, nil))))
	assert.Equal(t, ".txt", filepath.Ext(f.Current()))

	content, err := os.ReadFile(f.Current())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.Len(t, f.Versions(), 2)
}

func TestDecompressRejectsPlainFiles(t *testing.T) {
	ctx, in := setupTest(t)

	path, res := Invoke(ctx, resolve(t, DecompressName, nil), in)
	assert.Empty(t, path)
	assert.False(t, res.Success())
	assert.Contains(t, res.Errors()[0].String(), "not a .zst file")
}

func TestChecksumOperation(t *testing.T) {
	ctx, in := setupTest(t)
	op := resolve(t, ChecksumName, nil)
	assert.Equal(t, result.CaptureInspected, op.Descriptor().Capture)

	path, res := Invoke(ctx, op, in)
	assert.Empty(t, path)
	require.True(t, res.Success())

	want, err := metadata.HashFile(in.Source)
	require.NoError(t, err)
	assert.Equal(t, want, res.Data()["blake3"])
	assert.Equal(t, int64(len("hello world")), res.Data()["size"])

	_, err = NewDefaultRegistry().Resolve(ChecksumName, map[string]any{"algo": "md5"})
	assert.Error(t, err)
}

// 🔧 MockReader is a mock implementation of metadata.Reader
type MockReader struct {
	mock.Mock
}

func (m *MockReader) ReadTags(ctx context.Context, path string) (map[string]any, error) {
	args := m.Called(ctx, path)
	tags, _ := args.Get(0).(map[string]any)
	return tags, args.Error(1)
}

func TestTagsOperation(t *testing.T) {
	ctx, in := setupTest(t)
	current := filepath.Join(in.Dir, "notes_1.txt")
	require.NoError(t, os.WriteFile(current, []byte("v1"), 0o644))
	in.Source = current

	reader := &MockReader{}
	reader.On("ReadTags", ctx, in.Original).Return(map[string]any{"Author": "me"}, nil)
	reader.On("ReadTags", ctx, current).Return(map[string]any{}, nil)

	dropped := NewTagsWithReader(reader, true, result.Descriptor{Name: TagsName, Capture: result.CaptureDropped})
	_, res := Invoke(ctx, dropped, in)
	require.True(t, res.Success())
	assert.Equal(t, map[string]any{"Author": "me"}, res.Data())
	assert.Equal(t, result.CaptureDropped, res.Operation().Capture)

	inspect := NewTagsWithReader(reader, false, result.Descriptor{Name: TagsName, Capture: result.CaptureInspected})
	_, res = Invoke(ctx, inspect, in)
	require.True(t, res.Success())
	assert.True(t, res.HasData())
	assert.Empty(t, res.Data())

	reader.AssertExpectations(t)
}

func TestTagsOptions(t *testing.T) {
	tests := []struct {
		name        string
		options     map[string]any
		wantCapture result.CaptureTag
		errContains string
	}{
		{name: "defaults", wantCapture: result.CaptureInspected},
		{name: "dropped_original", options: map[string]any{"of": "original", "capture": "dropped"}, wantCapture: result.CaptureDropped},
		{name: "exiftool", options: map[string]any{"reader": "exiftool", "binary": "/opt/bin/exiftool"}, wantCapture: result.CaptureInspected},
		{name: "bad_reader", options: map[string]any{"reader": "magic"}, errContains: "unknown reader"},
		{name: "bad_target", options: map[string]any{"of": "previous"}, errContains: "current or original"},
		{name: "bad_capture", options: map[string]any{"capture": "stolen"}, errContains: "unknown capture tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewTags(tt.options)
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCapture, op.Descriptor().Capture)
		})
	}
}

func TestTagsStatReader(t *testing.T) {
	ctx, in := setupTest(t)

	_, res := Invoke(ctx, resolve(t, TagsName, nil), in)
	require.True(t, res.Success())
	assert.Equal(t, ".txt", res.Data()["extension"])
	assert.Equal(t, int64(11), res.Data()["size"])
}
