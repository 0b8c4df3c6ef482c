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


package vecstore

import "errors"

var (
	// ErrStore indicates a failure in the underlying vector engine.
	// Engine errors are wrapped with this sentinel so callers can detect
	// storage-boundary failures without matching provider error types.
	ErrStore = errors.New("vector store failure")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexClosed indicates the index has been closed.
	ErrIndexClosed = errors.New("vector index is closed")
)
