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

package ingestion

import "errors"

var (
	// ErrStreamRequired is returned when no session stream is provided.
	ErrStreamRequired = errors.New("session stream required")

	// ErrConfigRequired is returned when a nil config is provided.
	ErrConfigRequired = errors.New("config required")

	// ErrClockRequired is returned when a nil clock is provided.
	ErrClockRequired = errors.New("clock required")

	// ErrRankerRequired is returned when a nil rank function is provided.
	ErrRankerRequired = errors.New("rank function required")

	// ErrInvalidTotal is returned when a negative total hint is provided.
	ErrInvalidTotal = errors.New("total hint cannot be negative")
)
