// Copyright 2025 Poiesic Systems
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

// Package index maintains an incremental fuzzy index over ingested
// sessions.
//
// The index is advisory. It tracks which sessions match the active pattern
// so callers can tell when the matched set changed and a full re-rank is
// worth running; it never decides which sessions get ranked.
//
// Work is incremental. Push and Reparse only queue sessions for evaluation;
// Tick evaluates a bounded number of them per call and reports whether
// membership changed. When a pattern extends the previous one, only the
// sessions that matched before are re-evaluated, since a longer pattern can
// only narrow a subsequence match.
package index
