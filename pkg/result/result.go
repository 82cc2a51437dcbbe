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
	"maps"
	"sort"
	"strings"
)

// 🏷️ CaptureTag says why an operation captured data instead of applying it.
type CaptureTag int

const (
	CaptureNone      CaptureTag = iota // Operation never captures data
	CaptureDropped                     // Data lost while converting the file
	CaptureRedacted                    // Data removed on purpose
	CaptureInspected                   // Data read from the file without changing it
)

// String returns a string representation of CaptureTag
func (t CaptureTag) String() string {
	switch t {
	case CaptureDropped:
		return "dropped"
	case CaptureRedacted:
		return "redacted"
	case CaptureInspected:
		return "inspected"
	default:
		return "none"
	}
}

// ParseCaptureTag maps a config string back to a tag.
func ParseCaptureTag(s string) (CaptureTag, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CaptureNone, true
	case "dropped":
		return CaptureDropped, true
	case "redacted":
		return CaptureRedacted, true
	case "inspected":
		return CaptureInspected, true
	default:
		return CaptureNone, false
	}
}

// 🎯 Descriptor identifies the operation that produced a result.
type Descriptor struct {
	Name    string
	Options map[string]any
	Capture CaptureTag
}

func (d Descriptor) String() string {
	if len(d.Options) == 0 {
		return d.Name
	}
	keys := make([]string, 0, len(d.Options))
	for k := range d.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d.Options[k]))
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(parts, ", "))
}

func (d Descriptor) clone() Descriptor {
	d.Options = maps.Clone(d.Options)
	return d
}

// 📄 OperationResult records the outcome of one operation. It never changes after New.
type OperationResult struct {
	operation Descriptor
	success   bool
	log       []Entry
	data      map[string]any
}

// New normalizes raw and builds an immutable result.
func New(op Descriptor, success bool, raw Raw) *OperationResult {
	log, data := Normalize(raw)
	return &OperationResult{
		operation: op.clone(),
		success:   success,
		log:       log,
		data:      data,
	}
}

// Operation returns a copy of the producing operation's descriptor.
func (r *OperationResult) Operation() Descriptor {
	return r.operation.clone()
}

func (r *OperationResult) Success() bool {
	return r.success
}

// Log returns a copy of the log; nil means absent.
func (r *OperationResult) Log() []Entry {
	return cloneLog(r.log)
}

// Data returns a copy of the captured data; nil means absent.
func (r *OperationResult) Data() map[string]any {
	return maps.Clone(r.data)
}

// HasData reports whether the result captured any data.
func (r *OperationResult) HasData() bool {
	return r.data != nil
}

// Errors returns only the error entries of the log.
func (r *OperationResult) Errors() []Entry {
	var out []Entry
	for _, e := range r.log {
		if e.IsError() {
			out = append(out, e)
		}
	}
	return out
}
