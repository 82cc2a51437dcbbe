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

package result

import (
	"fmt"
)

// 📝 Entry is one log line: a plain message or an error.
type Entry struct {
	message string
	err     error
}

// NewMessage creates a message entry.
func NewMessage(msg string) Entry {
	return Entry{message: msg}
}

// NewFailure creates an error entry. A nil error yields an empty message entry.
func NewFailure(err error) Entry {
	if err == nil {
		return Entry{}
	}
	return Entry{message: err.Error(), err: err}
}

// Err returns the error carried by the entry, if any.
func (e Entry) Err() error {
	return e.err
}

// IsError reports whether the entry carries an error.
func (e Entry) IsError() bool {
	return e.err != nil
}

func (e Entry) String() string {
	return e.message
}

// Trace returns the error with its stack trace, or the plain message.
func (e Entry) Trace() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%+v", e.err)
}
