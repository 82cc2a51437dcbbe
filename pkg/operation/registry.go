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
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Error kinds raised while building a pipeline.
var (
	ErrSourceDirectory = errors.Base("source directory error")
	ErrSourceFile      = errors.Base("source file error")
)

// builtinLocation is how built-in registrations appear in search listings.
const builtinLocation = "builtin"

// 📁 SourceDirectoryError means a configured source directory cannot be used.
type SourceDirectoryError struct {
	Dir string
	Err error
}

func (e *SourceDirectoryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("operation source directory %s is not usable", e.Dir)
	}
	return fmt.Sprintf("operation source directory %s: %v", e.Dir, e.Err)
}

func (e *SourceDirectoryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceDirectory}
	}
	return []error{ErrSourceDirectory, e.Err}
}

// 🔍 SourceFileError means no registration or manifest provides an operation.
type SourceFileError struct {
	Name     string
	Searched []string
}

func (e *SourceFileError) Error() string {
	return fmt.Sprintf("operation %q not found; searched: %s", e.Name, strings.Join(e.Searched, ", "))
}

func (e *SourceFileError) Unwrap() error {
	return ErrSourceFile
}

// 📚 Registry maps operation names to factories. Later registrations shadow
// earlier ones. A Registry is built once, before any pipeline runs, and is not
// safe for concurrent registration.
type Registry struct {
	factories map[string]Factory
	origins   map[string]string
	sources   []string
}

// 🏗️ NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		origins:   make(map[string]string),
	}
}

// 🏗️ NewDefaultRegistry creates a registry holding every built-in operation
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ReplaceName, NewReplace)
	r.Register(CompressName, NewCompress)
	r.Register(DecompressName, NewDecompress)
	r.Register(ChecksumName, NewChecksum)
	r.Register(TagsName, NewTags)
	return r
}

// Register adds or shadows name.
func (r *Registry) Register(name string, factory Factory) {
	r.register(name, builtinLocation, factory)
}

func (r *Registry) register(name, origin string, factory Factory) {
	r.factories[name] = factory
	r.origins[name] = origin
}

// 📂 AddSource loads every *.yaml and *.yml manifest in dir. Manifests are
// registered in name order, so within one directory the last file wins.
func (r *Registry) AddSource(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.WithStack(&SourceDirectoryError{Dir: dir, Err: err})
	}

	info, err := os.Stat(abs)
	if err != nil {
		return errors.WithStack(&SourceDirectoryError{Dir: abs, Err: err})
	}
	if !info.IsDir() {
		return errors.WithStack(&SourceDirectoryError{Dir: abs, Err: errors.New("not a directory")})
	}

	paths, err := doublestar.FilepathGlob(filepath.Join(doublestar.EscapeMeta(abs), "*.{yaml,yml}"))
	if err != nil {
		return errors.WithStack(&SourceDirectoryError{Dir: abs, Err: err})
	}
	sort.Strings(paths)

	r.sources = append(r.sources, abs)

	for _, path := range paths {
		m, err := LoadManifest(path)
		if err != nil {
			return errors.Errorf("loading source %s: %w", abs, err)
		}
		r.register(m.Name, path, m.Factory())
		zerolog.Ctx(ctx).Debug().Str("operation", m.Name).Str("manifest", path).Msg("registered manifest operation")
	}

	return nil
}

// Resolve builds the operation registered under name.
func (r *Registry) Resolve(name string, options map[string]any) (Operation, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.WithStack(&SourceFileError{Name: name, Searched: r.Searched()})
	}

	op, err := factory(options)
	if err != nil {
		return nil, errors.Errorf("configuring operation %s from %s: %w", name, r.origins[name], err)
	}
	return op, nil
}

// Names returns every resolvable name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Origin returns where name was registered from: "builtin" or a manifest path.
func (r *Registry) Origin(name string) (string, bool) {
	origin, ok := r.origins[name]
	return origin, ok
}

// Searched lists every location Resolve looks in, builtins first.
func (r *Registry) Searched() []string {
	return append([]string{builtinLocation}, r.sources...)
}
