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

	"github.com/walteh/nondestruct/pkg/metadata"
	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

const TagsName = "tags"

type tagsOptions struct {
	// Reader is "stat" or "exiftool"
	Reader string `yaml:"reader"`
	Binary string `yaml:"binary"`
	// Of is "current" or "original"
	Of      string `yaml:"of"`
	Capture string `yaml:"capture"`
}

// 🏷️ tagsOperation snapshots metadata tags as captured data.
//
// Reading the original under the "dropped" tag records what a later
// conversion may lose, so it can be restored from history afterwards.
type tagsOperation struct {
	desc     result.Descriptor
	reader   metadata.Reader
	original bool
}

// NewTags builds the tags operation.
func NewTags(options map[string]any) (Operation, error) {
	opts := tagsOptions{Reader: "stat", Of: "current"}
	if err := decodeOptions(TagsName, options, &opts); err != nil {
		return nil, err
	}

	var reader metadata.Reader
	switch opts.Reader {
	case "stat":
		reader = metadata.Stat{}
	case "exiftool":
		reader = metadata.ExifTool{Binary: opts.Binary}
	default:
		return nil, errors.Errorf("%s: unknown reader %q", TagsName, opts.Reader)
	}

	if opts.Of != "current" && opts.Of != "original" {
		return nil, errors.Errorf("%s: of must be current or original, got %q", TagsName, opts.Of)
	}

	capture, err := parseCapture(TagsName, opts.Capture, result.CaptureInspected)
	if err != nil {
		return nil, err
	}

	return NewTagsWithReader(reader, opts.Of == "original", result.Descriptor{
		Name:    TagsName,
		Options: options,
		Capture: capture,
	}), nil
}

// NewTagsWithReader builds a tags operation around any reader.
func NewTagsWithReader(reader metadata.Reader, original bool, desc result.Descriptor) Operation {
	return &tagsOperation{desc: desc, reader: reader, original: original}
}

func (op *tagsOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *tagsOperation) Apply(ctx context.Context, in Input) (Output, error) {
	path := in.Source
	if op.original {
		path = in.Original
	}

	tags, err := op.reader.ReadTags(ctx, path)
	if err != nil {
		return Output{}, err
	}
	if tags == nil {
		tags = map[string]any{}
	}

	return Output{Result: result.Data(tags)}, nil
}
