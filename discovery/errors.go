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

package discovery

import "errors"

var (
	// ErrInvalidScanLimit is returned for a negative scan limit.
	ErrInvalidScanLimit = errors.New("scan limit cannot be negative")

	// ErrInvalidPreviewChars is returned for a negative preview length.
	ErrInvalidPreviewChars = errors.New("preview chars cannot be negative")

	// ErrInvalidWorkers is returned when a worker count below one is configured.
	ErrInvalidWorkers = errors.New("workers must be positive")

	// ErrRootRequired is returned when no sessions directory is given.
	ErrRootRequired = errors.New("sessions root cannot be empty")

	// ErrNotSessionLog is returned when a path is not a *.jsonl file.
	ErrNotSessionLog = errors.New("not a session log")
)
