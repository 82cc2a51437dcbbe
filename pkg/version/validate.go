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
	"path/filepath"

	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

// ✅ Validate gates a candidate version before it is recorded.
//
// The checks run in order and the first failure wins: a failed result, then
// (for modifying operations) existence, then containment in workDir. An empty
// candidate is a non-modifying operation and passes with an empty path.
// fallback names the file that was being processed.
func Validate(candidate string, res *result.OperationResult, workDir, fallback string) (string, *result.OperationResult, error) {
	if res != nil && !res.Success() {
		return "", nil, errors.WithStack(&FailedModificationError{Result: res, File: fallback})
	}

	if candidate == "" {
		return "", res, nil
	}

	exists, err := fileExists(candidate)
	if err != nil {
		return "", nil, errors.Errorf("checking version file: %w", err)
	}
	if !exists {
		return "", nil, errors.WithStack(&MissingVersionFileError{Path: candidate, Result: res})
	}

	actual := filepath.Clean(filepath.Dir(candidate))
	expected := filepath.Clean(workDir)
	if actual != expected {
		return "", nil, errors.WithStack(&MisplacedVersionFileError{
			Path:     candidate,
			Actual:   actual,
			Expected: expected,
			Result:   res,
		})
	}

	return candidate, res, nil
}
