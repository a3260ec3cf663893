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

package core

import "errors"

var (
	// ErrInvalidSession indicates a Session failed validation.
	ErrInvalidSession = errors.New("invalid session")

	// ErrEmptyUUID indicates the session has no identity.
	ErrEmptyUUID = errors.New("uuid cannot be empty")

	// ErrNoMessages indicates no message survived meta filtering.
	ErrNoMessages = errors.New("session has no messages")

	// ErrMissingUpdatedAt indicates the session has no modification time.
	ErrMissingUpdatedAt = errors.New("updated_at cannot be zero")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")
)
