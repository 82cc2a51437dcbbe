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

// Package metadata reads descriptive tags from files.
package metadata

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
)

// ErrRead is the kind of every failure returned by a Reader.
var ErrRead = errors.Base("metadata read error")

// ReadError ties a failed read to its path. It matches both ErrRead and the cause.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return "metadata read error: " + e.Path + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() []error {
	return []error{ErrRead, e.Err}
}

func readError(path string, err error) error {
	return errors.WithStack(&ReadError{Path: path, Err: err})
}

// WrapReadError makes err match ErrRead. Errors that already do are returned as is.
func WrapReadError(path string, err error) error {
	if err == nil || errors.Is(err, ErrRead) {
		return err
	}
	return readError(path, err)
}

// 🏷️ Reader returns descriptive key-value tags for a file.
type Reader interface {
	ReadTags(ctx context.Context, path string) (map[string]any, error)
}

// 📄 Stat reads filesystem-level tags and a content hash.
type Stat struct{}

var _ Reader = Stat{}

func (Stat) ReadTags(ctx context.Context, path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, readError(path, err)
	}
	if info.IsDir() {
		return nil, readError(path, errors.New("is a directory"))
	}

	sum, err := HashFile(path)
	if err != nil {
		return nil, readError(path, err)
	}

	return map[string]any{
		"size":      info.Size(),
		"mode":      info.Mode().Perm().String(),
		"modified":  info.ModTime().UTC().Format(time.RFC3339),
		"extension": strings.ToLower(filepath.Ext(path)),
		"blake3":    sum,
	}, nil
}

// HashFile returns the hex blake3 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// 📸 ExifTool reads tags by running the exiftool binary.
type ExifTool struct {
	// Binary defaults to "exiftool" resolved from PATH.
	Binary string
}

var _ Reader = ExifTool{}

func (e ExifTool) ReadTags(ctx context.Context, path string) (map[string]any, error) {
	bin := e.Binary
	if bin == "" {
		bin = "exiftool"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-json", "-n", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().Str("binary", bin).Str("path", path).Msg("reading tags")

	if err := cmd.Run(); err != nil {
		return nil, readError(path, errors.Errorf("running %s: %w: %s", bin, err, strings.TrimSpace(stderr.String())))
	}

	var decoded []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		return nil, readError(path, errors.Errorf("decoding %s output: %w", bin, err))
	}
	if len(decoded) != 1 {
		return nil, readError(path, errors.Errorf("expected one object, got %d", len(decoded)))
	}

	tags := decoded[0]
	delete(tags, "SourceFile")
	return tags, nil
}
