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

	"github.com/walteh/nondestruct/pkg/metadata"
	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

const ChecksumName = "checksum"

// 🔐 checksumOperation records the blake3 digest and size of the current version.
type checksumOperation struct {
	desc result.Descriptor
}

// NewChecksum builds the checksum operation. It takes no options.
func NewChecksum(options map[string]any) (Operation, error) {
	var none struct{}
	if err := decodeOptions(ChecksumName, options, &none); err != nil {
		return nil, err
	}
	return &checksumOperation{
		desc: result.Descriptor{Name: ChecksumName, Options: options, Capture: result.CaptureInspected},
	}, nil
}

func (op *checksumOperation) Descriptor() result.Descriptor {
	return op.desc
}

func (op *checksumOperation) Apply(ctx context.Context, in Input) (Output, error) {
	info, err := os.Stat(in.Source)
	if err != nil {
		return Output{}, errors.Errorf("reading source info: %w", err)
	}

	sum, err := metadata.HashFile(in.Source)
	if err != nil {
		return Output{}, err
	}

	return Output{Result: result.Data{
		"blake3": sum,
		"size":   info.Size(),
	}}, nil
}
