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

package version

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/nondestruct/pkg/history"
	"github.com/walteh/nondestruct/pkg/metadata"
	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

const workDirSuffix = "_versions"

// 🔧 Invoker runs one operation against the current version and hands back the
// new version path (empty for non-modifying operations) and its result.
type Invoker func(ctx context.Context, current, dir, original string) (string, *result.OperationResult)

// 📄 File is a versioned file: an untouched original plus a chain of versions
// kept in a sibling working directory.
//
// A File must not be used by two goroutines at once.
type File struct {
	original string
	basename string
	workDir  string
	created  bool
	history  *history.History
	suffix   string
	reader   metadata.Reader
}

// Option configures a File.
type Option func(*File)

// WithSuffix fixes the suffix used by Finalize when the original is kept.
func WithSuffix(suffix string) Option {
	return func(f *File) {
		f.suffix = suffix
	}
}

// WithMetadataReader sets the reader behind Tags and OriginalTags.
func WithMetadataReader(r metadata.Reader) Option {
	return func(f *File) {
		f.reader = r
	}
}

// 🏭 New creates a versioned file for original, which must be an existing regular file.
func New(original string, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(original)
	if err != nil {
		return nil, errors.Errorf("resolving original path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Errorf("opening original: %w", err)
	}
	if info.IsDir() {
		return nil, errors.Errorf("original %s is a directory", abs)
	}

	f := &File{
		history: history.New(),
		suffix:  uuid.NewString()[:8],
		reader:  metadata.Stat{},
	}
	f.setOriginal(abs)

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *File) setOriginal(path string) {
	base := filepath.Base(path)
	f.original = path
	f.basename = strings.TrimSuffix(base, filepath.Ext(base))
	f.workDir = filepath.Join(filepath.Dir(path), f.basename+workDirSuffix)
}

// Original returns the absolute path of the untouched source.
func (f *File) Original() string {
	return f.original
}

// Basename returns the original file name without its extension.
func (f *File) Basename() string {
	return f.basename
}

// Suffix returns the suffix Finalize appends when the original is kept.
func (f *File) Suffix() string {
	return f.suffix
}

// WorkDir returns the working directory path. It may not exist yet.
func (f *File) WorkDir() string {
	return f.workDir
}

// History returns the live ledger for this session.
func (f *File) History() *history.History {
	return f.history
}

// Current returns the last recorded version, or the original when nothing was recorded.
func (f *File) Current() string {
	if last, ok := f.history.Last(); ok {
		return last
	}
	return f.original
}

// Versions returns every recorded version other than the original.
func (f *File) Versions() []string {
	var out []string
	for _, v := range f.history.Versions() {
		if v != f.original {
			out = append(out, v)
		}
	}
	return out
}

// 📁 Directory returns the working directory, creating it on first use.
// An unrelated directory already sitting at that path is an error.
func (f *File) Directory(ctx context.Context) (string, error) {
	if f.created {
		exists, err := fileExists(f.workDir)
		if err != nil {
			return "", err
		}
		if exists {
			return f.workDir, nil
		}
	}

	if err := os.Mkdir(f.workDir, 0o755); err != nil {
		return "", errors.Errorf("creating working directory for %s: %w", f.original, err)
	}
	f.created = true

	zerolog.Ctx(ctx).Debug().Str("dir", f.workDir).Msg("created working directory")
	return f.workDir, nil
}

// 🔄 Modify runs invoke against the current version and admits what it returns.
func (f *File) Modify(ctx context.Context, invoke Invoker) error {
	dir, err := f.Directory(ctx)
	if err != nil {
		return err
	}

	path, res := invoke(ctx, f.Current(), dir, f.original)
	return f.Admit(ctx, path, res)
}

// ✅ Admit validates and records a candidate version. Paths outside the working
// directory are moved into it first. Any validation failure rolls the whole
// file back before the error is returned.
func (f *File) Admit(ctx context.Context, candidate string, res *result.OperationResult) error {
	logger := zerolog.Ctx(ctx)

	dir, err := f.Directory(ctx)
	if err != nil {
		return err
	}

	if candidate != "" {
		if abs, err := filepath.Abs(candidate); err == nil {
			candidate = abs
		}
		if res == nil || res.Success() {
			candidate = f.relocate(ctx, candidate, dir)
		}
	}

	path, res, err := Validate(candidate, res, dir, f.Current())
	if err == nil && path != "" && path != f.Current() && f.history.Has(path) {
		err = errors.WithStack(&ReusedVersionFileError{Path: path, Current: f.Current(), Result: res})
	}
	if err != nil {
		logger.Warn().Err(err).Str("original", f.original).Msg("rolling back versioned file")
		if rerr := f.Rollback(ctx); rerr != nil {
			logger.Error().Err(rerr).Str("original", f.original).Msg("rollback failed")
		}
		return err
	}

	if path == "" {
		if res != nil {
			f.history.Append(f.Current(), res)
		}
		return nil
	}

	f.history.Append(path, res)
	logger.Debug().Str("version", path).Int("versions", f.history.Len()).Msg("admitted version")
	return nil
}

// relocate moves candidate into dir when it exists elsewhere. The original is
// never moved. Failures leave candidate in place for Validate to reject.
func (f *File) relocate(ctx context.Context, candidate, dir string) string {
	if filepath.Clean(filepath.Dir(candidate)) == filepath.Clean(dir) {
		return candidate
	}
	if candidate == f.original {
		return candidate
	}

	exists, err := fileExists(candidate)
	if err != nil || !exists {
		return candidate
	}

	target, err := uniquePath(filepath.Join(dir, filepath.Base(candidate)))
	if err != nil {
		return candidate
	}

	if err := moveFile(candidate, target); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("from", candidate).Str("to", target).Msg("relocating version failed")
		return candidate
	}

	zerolog.Ctx(ctx).Debug().Str("from", candidate).Str("to", target).Msg("relocated version into working directory")
	return target
}

// 📸 Clone copies the current version to a fresh name and records it with no result.
func (f *File) Clone(ctx context.Context) (string, error) {
	dir, err := f.Directory(ctx)
	if err != nil {
		return "", err
	}

	current := f.Current()
	target := filepath.Join(dir, f.basename+"_"+uuid.NewString()[:8]+filepath.Ext(current))
	if err := copyFile(current, target); err != nil {
		os.Remove(target)
		return "", errors.Errorf("cloning %s: %w", current, err)
	}

	if err := f.Admit(ctx, target, nil); err != nil {
		return "", err
	}
	return target, nil
}

// 🧹 Rollback forgets every version and deletes the working directory this
// file created. It is safe to call more than once.
func (f *File) Rollback(ctx context.Context) error {
	f.history.Clear()

	if !f.created {
		return nil
	}
	f.created = false

	if err := os.RemoveAll(f.workDir); err != nil {
		return errors.Errorf("removing working directory: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", f.workDir).Msg("removed working directory")
	return nil
}

// 💾 Finalize writes the current version next to the original and ends the
// session. With overwrite the output takes the original's name (with the
// current extension) and the original is removed; otherwise the suffix is
// appended, and an existing file at that name gets a uuid-suffixed sibling
// instead. The working directory is removed on every exit path, and the
// written file becomes the new original.
func (f *File) Finalize(ctx context.Context, overwrite bool) (written string, err error) {
	defer func() {
		if cerr := f.Rollback(ctx); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				zerolog.Ctx(ctx).Error().Err(cerr).Str("original", f.original).Msg("cleanup after finalize failed")
			}
		}
	}()

	current := f.Current()
	ext := filepath.Ext(current)

	name := f.basename + "_" + f.suffix + ext
	if overwrite {
		name = f.basename + ext
	}
	target := filepath.Join(filepath.Dir(f.original), name)

	// a kept original is never written over, and neither is anything else
	if !overwrite {
		unique, uerr := uniquePath(target)
		if uerr != nil {
			return "", errors.Errorf("choosing output name: %w", uerr)
		}
		target = unique
	}

	if current != target {
		if err := copyFileAtomic(current, target); err != nil {
			return "", errors.Errorf("writing %s: %w", target, err)
		}
	}

	if overwrite && f.original != target {
		if err := os.Remove(f.original); err != nil && !os.IsNotExist(err) {
			return "", errors.Errorf("removing original: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("original", f.original).Str("written", target).Msg("finalized versioned file")

	// basename stays: the working directory name is tied to the logical file
	f.original = target
	return target, nil
}

// Tags reads metadata tags of the current version.
func (f *File) Tags(ctx context.Context) (map[string]any, error) {
	return f.readTags(ctx, f.Current())
}

// OriginalTags reads metadata tags of the original.
func (f *File) OriginalTags(ctx context.Context) (map[string]any, error) {
	return f.readTags(ctx, f.original)
}

func (f *File) readTags(ctx context.Context, path string) (map[string]any, error) {
	tags, err := f.reader.ReadTags(ctx, path)
	if err != nil {
		return nil, metadata.WrapReadError(path, err)
	}
	return tags, nil
}
