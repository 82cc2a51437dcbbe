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

/*
Package status keeps the per-file outcome of a batch run and renders it.

	+-------------+   Track    +--------+   Render   +-------------+
	|  apply cmd  | ---------> | Report | ---------> | pterm table |
	+-------------+            +--------+            +-------------+
	       |                        ^
	       |   UpdateProgress       |
	       +------------------------+

🎯 Purpose:
- Records what happened to every input file (finalized, kept, rolled back)
- Counts progress while a batch is running
- Formats one-line outcomes and an end-of-run summary table

A Report is safe for concurrent use.
*/
package status
