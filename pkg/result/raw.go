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

import "maps"

// 📦 Raw is anything an operation may hand back alongside its output path.
//
// The set of variants is closed: Absent, Message, Failure, Data, LogAndData and List.
type Raw interface {
	isRaw()
}

// Absent means the operation had nothing to report.
type Absent struct{}

// Message is a single informational log line.
type Message string

// Failure is a single error log entry.
type Failure struct {
	Err error
}

// Data is a captured key-value map with no log.
type Data map[string]any

// LogAndData is the canonical shape. Either side may be nil.
type LogAndData struct {
	Log  []Entry
	Data map[string]any
}

// List is an ordered mix of other variants. Nested lists are spliced in place.
type List []Raw

func (Absent) isRaw()     {}
func (Message) isRaw()    {}
func (Failure) isRaw()    {}
func (Data) isRaw()       {}
func (LogAndData) isRaw() {}
func (List) isRaw()       {}

// 🔄 Normalize turns any Raw into the canonical (log, data) pair.
//
// A nil log or nil data means absent. When a List holds more than one map-like
// element, the first one met in flattened order is the data and the rest are ignored.
func Normalize(raw Raw) ([]Entry, map[string]any) {
	switch r := raw.(type) {
	case nil, Absent:
		return nil, nil
	case Message:
		return []Entry{NewMessage(string(r))}, nil
	case Failure:
		return []Entry{NewFailure(r.Err)}, nil
	case Data:
		if r == nil {
			return nil, nil
		}
		return nil, maps.Clone(map[string]any(r))
	case LogAndData:
		return cloneLog(r.Log), maps.Clone(r.Data)
	case List:
		return normalizeList(r)
	default:
		return nil, nil
	}
}

// Canonical wraps an already normalized pair so it can travel as a Raw again.
func Canonical(log []Entry, data map[string]any) Raw {
	if log == nil && data == nil {
		return Absent{}
	}
	return LogAndData{Log: cloneLog(log), Data: maps.Clone(data)}
}

func normalizeList(list List) ([]Entry, map[string]any) {
	var (
		log   []Entry
		data  map[string]any
		found bool
	)

	var walk func(items List)
	walk = func(items List) {
		for _, item := range items {
			switch it := item.(type) {
			case nil, Absent:
			case Message:
				log = append(log, NewMessage(string(it)))
			case Failure:
				log = append(log, NewFailure(it.Err))
			case Data:
				if !found && it != nil {
					data = maps.Clone(map[string]any(it))
					found = true
				}
			case LogAndData:
				log = append(log, it.Log...)
				if !found && it.Data != nil {
					data = maps.Clone(it.Data)
					found = true
				}
			case List:
				walk(it)
			}
		}
	}
	walk(list)

	return cloneLog(log), data
}

func cloneLog(log []Entry) []Entry {
	if len(log) == 0 {
		return nil
	}
	out := make([]Entry, len(log))
	copy(out, log)
	return out
}
