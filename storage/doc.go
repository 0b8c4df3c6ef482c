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


// Package storage provides the storage abstraction layer for ragkit.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, plus the MUS marshal helpers shared by
// the backends.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interfaces defined here:
//
//	threads, err := badger.NewThreadRepository(backend)  // storage.ThreadRepository
//
// This keeps consumers decoupled from BadgerDB specifics and lets tests swap
// in alternative implementations without modification.
//
// # Repositories
//
//   - ThreadRepository: durable conversation threads, saved and loaded whole
//   - JournalRepository: append-only audit log of engine events
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
