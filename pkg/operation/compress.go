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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

const (
	CompressName   = "compress"
	DecompressName = "decompress"

	zstdExt = ".zst"
)

type compressOptions struct {
	Level string `yaml:"level"`
}

// 🗜️ compressOperation writes a zstd compressed version with a .zst suffix.
type compressOperation struct {
	desc  result.Descriptor
	level zstd.EncoderLevel
}

// NewCompress builds the compress operation. "level" is one of fastest, default, better, best.
func NewCompress(options map[string]any) (Operation, error) {
	opts := compressOptions{Level: "default"}
	if err := decodeOptions(CompressName, options, &opts); err != nil {
		return nil, err
	}

	ok, level := zstd.EncoderLevelFromString(opts.Level)
	if !ok {
		return nil, errors.Errorf("%s: unknown level %q", CompressName, opts.Level)
	}

	return &compressOperation{
		desc:  result.Descriptor{Name: CompressName, Options: options},
		level: level,
	}, nil
}

func (op *compressOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *compressOperation) Apply(ctx context.Context, in Input) (Output, error) {
	src, err := os.Open(in.Source)
	if err != nil {
		return Output{}, errors.Errorf("opening source: %w", err)
	}
	defer src.Close()

	target := TargetPath(in, filepath.Ext(in.Source)+zstdExt)
	dst, err := os.Create(target)
	if err != nil {
		return Output{}, errors.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(op.level))
	if err != nil {
		return Output{Path: target}, errors.Errorf("creating encoder: %w", err)
	}

	read, err := io.Copy(enc, src)
	if err != nil {
		enc.Close()
		return Output{Path: target}, errors.Errorf("compressing: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Output{Path: target}, errors.Errorf("flushing encoder: %w", err)
	}

	info, err := dst.Stat()
	if err != nil {
		return Output{Path: target}, errors.Errorf("reading output info: %w", err)
	}

	return Output{
		Path:   target,
		Result: result.Message(fmt.Sprintf("compressed %d bytes to %d (%s)", read, info.Size(), op.level)),
	}, nil
}

// 📦 decompressOperation reverses compress and drops the .zst suffix.
type decompressOperation struct {
	desc result.Descriptor
}

// NewDecompress builds the decompress operation. It takes no options.
func NewDecompress(options map[string]any) (Operation, error) {
	var none struct{}
	if err := decodeOptions(DecompressName, options, &none); err != nil {
		return nil, err
	}
	return &decompressOperation{
		desc: result.Descriptor{Name: DecompressName, Options: options},
	}, nil
}

func (op *decompressOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *decompressOperation) Apply(ctx context.Context, in Input) (Output, error) {
	if !strings.HasSuffix(in.Source, zstdExt) {
		return Output{}, errors.Errorf("%s is not a %s file", filepath.Base(in.Source), zstdExt)
	}

	src, err := os.Open(in.Source)
	if err != nil {
		return Output{}, errors.Errorf("opening source: %w", err)
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return Output{}, errors.Errorf("creating decoder: %w", err)
	}
	defer dec.Close()

	inner := filepath.Ext(strings.TrimSuffix(in.Source, zstdExt))
	target := TargetPath(in, inner)
	if inner == "" {
		target = strings.TrimSuffix(TargetPath(in, zstdExt), zstdExt)
	}

	dst, err := os.Create(target)
	if err != nil {
		return Output{}, errors.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, dec)
	if err != nil {
		return Output{Path: target}, errors.Errorf("decompressing: %w", err)
	}

	return Output{
		Path:   target,
		Result: result.Message(fmt.Sprintf("decompressed to %d bytes", written)),
	}, nil
}
