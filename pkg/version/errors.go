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
	"fmt"
	"strings"

	"github.com/walteh/nondestruct/pkg/result"
	"gitlab.com/tozd/go/errors"
)

// Error kinds. Every admission failure unwraps to exactly one of these.
var (
	ErrMissingVersionFile   = errors.Base("missing version file")
	ErrMisplacedVersionFile = errors.Base("misplaced version file")
	ErrFailedModification   = errors.Base("failed modification")
	ErrReusedVersionFile    = errors.Base("reused version file")
)

// ❌ FailedModificationError means the operation reported failure or threw.
type FailedModificationError struct {
	Result *result.OperationResult
	File   string
}

func (e *FailedModificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed modification: %s", describe(e.Result))
	fmt.Fprintf(&b, " on %s", e.File)

	if e.Result == nil {
		return b.String()
	}
	for _, entry := range e.Result.Log() {
		if entry.IsError() {
			fmt.Fprintf(&b, "\n\t%s", entry.Trace())
		} else {
			fmt.Fprintf(&b, "\n\t%s", entry.String())
		}
	}
	return b.String()
}

func (e *FailedModificationError) Unwrap() error {
	return ErrFailedModification
}

// 🔍 MissingVersionFileError means the operation returned a path that does not exist.
type MissingVersionFileError struct {
	Path   string
	Result *result.OperationResult
}

func (e *MissingVersionFileError) Error() string {
	return fmt.Sprintf("missing version file: %s returned %s which does not exist", describe(e.Result), e.Path)
}

func (e *MissingVersionFileError) Unwrap() error {
	return ErrMissingVersionFile
}

// 📁 MisplacedVersionFileError means the version lives outside the working directory.
type MisplacedVersionFileError struct {
	Path     string
	Actual   string
	Expected string
	Result   *result.OperationResult
}

func (e *MisplacedVersionFileError) Error() string {
	return fmt.Sprintf("misplaced version file: %s wrote %s into %s, expected %s", describe(e.Result), e.Path, e.Actual, e.Expected)
}

func (e *MisplacedVersionFileError) Unwrap() error {
	return ErrMisplacedVersionFile
}

// 🔁 ReusedVersionFileError means the operation returned a version that was
// already recorded earlier in the chain.
type ReusedVersionFileError struct {
	Path    string
	Current string
	Result  *result.OperationResult
}

func (e *ReusedVersionFileError) Error() string {
	return fmt.Sprintf("reused version file: %s returned %s which is already recorded, current is %s", describe(e.Result), e.Path, e.Current)
}

func (e *ReusedVersionFileError) Unwrap() error {
	return ErrReusedVersionFile
}

func describe(res *result.OperationResult) string {
	if res == nil {
		return "operation <unknown>"
	}
	return fmt.Sprintf("operation %s", res.Operation())
}
