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

// Package search ranks sessions against a query.
//
// Each session is scored from several signals:
//   - smart-case fuzzy alignment of the query against the search blob, label and uuid
//   - case-insensitive substring containment in any of those fields
//   - the best matching message, which also anchors the result in time
//   - a recency bonus that decays linearly with the anchor's age
//
// Results are ordered by match timestamp, newest first, with score as the
// tie-break. Every result carries a snippet rendered around the first
// occurrence of the query.
package search
