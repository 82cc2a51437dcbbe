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

// Package history keeps the per-version ledger of operation results for one
// versioned file session and answers audit and captured-data queries over it.
package history

import (
	"maps"

	"github.com/google/go-cmp/cmp"
	"github.com/walteh/nondestruct/pkg/result"
)

// 📚 History maps version paths to their results, in admission order.
type History struct {
	order   []string
	results map[string][]*result.OperationResult
}

// Captured is data one result captured, with where it came from.
type Captured struct {
	Version   string
	Operation result.Descriptor
	Data      map[string]any
}

// Trace is one audit row: who ran, with what options, and what it logged.
type Trace struct {
	Version string
	Name    string
	Options map[string]any
	Success bool
	Entries []result.Entry
}

// 🏭 New creates an empty history
func New() *History {
	return &History{
		results: make(map[string][]*result.OperationResult),
	}
}

// Append records res against version. A known version keeps its position and
// gains another result; a nil res only registers the version.
func (h *History) Append(version string, res *result.OperationResult) {
	if _, ok := h.results[version]; !ok {
		h.order = append(h.order, version)
		h.results[version] = nil
	}
	if res != nil {
		h.results[version] = append(h.results[version], res)
	}
}

// Len returns the number of recorded versions.
func (h *History) Len() int {
	return len(h.order)
}

// Last returns the most recently recorded version.
func (h *History) Last() (string, bool) {
	if len(h.order) == 0 {
		return "", false
	}
	return h.order[len(h.order)-1], true
}

// Versions returns version paths in chronological order.
func (h *History) Versions() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Has reports whether version was recorded.
func (h *History) Has(version string) bool {
	_, ok := h.results[version]
	return ok
}

// Results returns the results recorded for version.
func (h *History) Results(version string) []*result.OperationResult {
	rs := h.results[version]
	out := make([]*result.OperationResult, len(rs))
	copy(out, rs)
	return out
}

// Clear forgets every version.
func (h *History) Clear() {
	h.order = nil
	h.results = make(map[string][]*result.OperationResult)
}

// LogFor concatenates the log of every result recorded for version.
func (h *History) LogFor(version string) []result.Entry {
	var out []result.Entry
	for _, r := range h.results[version] {
		out = append(out, r.Log()...)
	}
	return out
}

// DataFor returns the data recorded for version, merged in record order.
func (h *History) DataFor(version string) map[string]any {
	var out map[string]any
	for _, r := range h.results[version] {
		if !r.HasData() {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		maps.Copy(out, r.Data())
	}
	return out
}

// 🔍 CapturedData lists every result that carries data, oldest first.
func (h *History) CapturedData() []Captured {
	var out []Captured
	for _, v := range h.order {
		for _, r := range h.results[v] {
			if !r.HasData() {
				continue
			}
			out = append(out, Captured{
				Version:   v,
				Operation: r.Operation(),
				Data:      r.Data(),
			})
		}
	}
	return out
}

// CapturedDataFor filters CapturedData to operations called name whose options
// contain every key of subset with an equal value. The bool is false when no
// version was ever recorded.
func (h *History) CapturedDataFor(name string, subset map[string]any) ([]Captured, bool) {
	if len(h.order) == 0 {
		return nil, false
	}
	out := []Captured{}
	for _, c := range h.CapturedData() {
		if c.Operation.Name != name {
			continue
		}
		if !containsOptions(c.Operation.Options, subset) {
			continue
		}
		out = append(out, c)
	}
	return out, true
}

// CapturedDataWith filters CapturedData to operations reporting tag.
func (h *History) CapturedDataWith(tag result.CaptureTag) []Captured {
	var out []Captured
	for _, c := range h.CapturedData() {
		if c.Operation.Capture == tag {
			out = append(out, c)
		}
	}
	return out
}

// 📝 Log flattens every result into audit rows, oldest first.
func (h *History) Log() []Trace {
	var out []Trace
	for _, v := range h.order {
		for _, r := range h.results[v] {
			op := r.Operation()
			out = append(out, Trace{
				Version: v,
				Name:    op.Name,
				Options: op.Options,
				Success: r.Success(),
				Entries: r.Log(),
			})
		}
	}
	return out
}

// Merge folds captured data into one map. Later entries win on key conflicts.
func Merge(captured []Captured) map[string]any {
	out := make(map[string]any)
	for _, c := range captured {
		maps.Copy(out, c.Data)
	}
	return out
}

func containsOptions(options, subset map[string]any) bool {
	for k, want := range subset {
		got, ok := options[k]
		if !ok {
			return false
		}
		if !cmp.Equal(got, want) {
			return false
		}
	}
	return true
}
