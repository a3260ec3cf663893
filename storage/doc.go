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

// Package storage provides the storage abstraction for the session parse
// cache.
//
// Parsing a large session transcript dominates startup time. A SessionCache
// keeps parsed sessions keyed by file path and validated by a FileStamp, so
// unchanged files are not parsed again:
//
//	cache, err := badger.NewSessionCache(dir, slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryCache()
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage.SessionCache
// interface rather than a concrete type.
//
// # Thread Safety
//
// All cache implementations must be safe for concurrent use; discovery
// consults the cache from several parser goroutines at once.
package storage
