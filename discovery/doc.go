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

// Package discovery finds Codex session logs on disk and turns them into
// core.Session values.
//
// Paths lists the newest *.jsonl files under the sessions root. Collect
// parses a finite batch in parallel and keeps the newest-first order. Stream
// feeds sessions one at a time over a channel for the live pipeline and, in
// watch mode, keeps emitting sessions for log files that appear later.
//
// Files that cannot be read or that hold no conversation messages are
// skipped. Only a failure to walk the root itself is returned to the caller.
package discovery
