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
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🏷️ FileStatus is what happened to one input file
type FileStatus int

const (
	StatusPending    FileStatus = iota
	StatusFinalized             // Current version written next to the original
	StatusKept                  // Versions left in the working directory
	StatusRolledBack            // Pipeline failed and every version was discarded
	StatusFailed                // Pipeline succeeded but finalize did not
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusFinalized:
		return "finalized"
	case StatusKept:
		return "kept"
	case StatusRolledBack:
		return "rolled back"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Failed reports whether s counts against the run
func (s FileStatus) Failed() bool {
	return s == StatusRolledBack || s == StatusFailed
}

// 📄 FileInfo is the outcome for one input file
type FileInfo struct {
	Original string     // Original path
	Written  string     // Finalized path, empty unless finalized
	WorkDir  string     // Working directory
	Versions int        // Versions recorded before finalize or rollback
	Status   FileStatus // Outcome
	Err      error      // Pipeline or finalize error
}

// 📊 Report collects file outcomes for one run
type Report struct {
	formatter FileFormatter

	mu    sync.RWMutex
	files map[string]FileInfo

	total     int
	processed int
}

// 🏭 New creates an empty report
func New(formatter FileFormatter) *Report {
	if formatter == nil {
		formatter = NewDefaultFileFormatter()
	}
	return &Report{
		formatter: formatter,
		files:     make(map[string]FileInfo),
	}
}

// Track records info, replacing any earlier entry for the same original
func (r *Report) Track(ctx context.Context, info FileInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files[info.Original] = info

	event := zerolog.Ctx(ctx).Debug()
	if info.Status.Failed() {
		event = zerolog.Ctx(ctx).Warn().Err(info.Err)
	}
	event.Str("original", info.Original).Str("status", info.Status.String()).Msg(r.formatter.FormatFile(info))
}

// Get returns the entry for original
func (r *Report) Get(original string) (FileInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.files[original]
	return info, ok
}

// List returns every entry sorted by original path
func (r *Report) List() []FileInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FileInfo, 0, len(r.files))
	for _, info := range r.files {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b FileInfo) int {
		return strings.Compare(a.Original, b.Original)
	})
	return out
}

// Counts returns how many files ended in each status
func (r *Report) Counts() map[FileStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[FileStatus]int)
	for _, info := range r.files {
		out[info.Status]++
	}
	return out
}

// HasFailures reports whether any tracked file failed
func (r *Report) HasFailures() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.files {
		if info.Status.Failed() {
			return true
		}
	}
	return false
}

// ⏳ StartOperation resets progress for total files
func (r *Report) StartOperation(ctx context.Context, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.processed = 0
	zerolog.Ctx(ctx).Debug().Int("total", total).Msg("starting batch")
}

// UpdateProgress marks n more files as processed and returns the progress line
func (r *Report) UpdateProgress(ctx context.Context, n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed += n
	msg := r.formatter.FormatProgress(r.processed, r.total)
	zerolog.Ctx(ctx).Debug().Int("processed", r.processed).Int("total", r.total).Msg(msg)
	return msg
}

// FinishOperation logs the final counts
func (r *Report) FinishOperation(ctx context.Context) {
	counts := r.Counts()
	zerolog.Ctx(ctx).Info().
		Int("finalized", counts[StatusFinalized]).
		Int("kept", counts[StatusKept]).
		Int("rolled_back", counts[StatusRolledBack]).
		Int("failed", counts[StatusFailed]).
		Msg("batch finished")
}

// 📋 Table returns the summary rows, header first
func (r *Report) Table() [][]string {
	rows := [][]string{{"File", "Status", "Versions", "Output"}}
	for _, info := range r.List() {
		output := "-"
		switch {
		case info.Written != "":
			output = filepath.Base(info.Written)
		case info.Status == StatusKept:
			output = info.WorkDir
		case info.Err != nil:
			output = firstLine(info.Err.Error())
		}
		rows = append(rows, []string{
			filepath.Base(info.Original),
			info.Status.String(),
			fmt.Sprint(info.Versions),
			output,
		})
	}
	return rows
}

// 🖨️ Render writes the summary table to w
func (r *Report) Render(w io.Writer) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(r.Table()).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
