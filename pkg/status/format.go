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

package status

import (
	"fmt"
	"path/filepath"
)

// 🎨 FileFormatter formats status messages
type FileFormatter interface {
	// FormatFile formats the outcome of one file
	FormatFile(info FileInfo) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter is the formatter used by New
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new default formatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFile formats the outcome of one file
func (f *DefaultFileFormatter) FormatFile(info FileInfo) string {
	name := filepath.Base(info.Original)
	switch info.Status {
	case StatusFinalized:
		return fmt.Sprintf("✨ Finalized %s -> %s", name, filepath.Base(info.Written))
	case StatusKept:
		return fmt.Sprintf("📁 Kept %d versions of %s", info.Versions, name)
	case StatusRolledBack:
		return fmt.Sprintf("❌ Rolled back %s", name)
	case StatusFailed:
		return fmt.Sprintf("💥 Failed %s", name)
	default:
		return fmt.Sprintf("👍 Pending %s", name)
	}
}

// FormatProgress formats a progress message
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
