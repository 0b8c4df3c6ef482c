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

// Domain validation errors
var (
	// ErrNoSources indicates an ingestion request with an empty source list.
	ErrNoSources = errors.New("at least one data source must be provided")

	// ErrEmptyQuery indicates a blank search or chat query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyCollection indicates a blank logical collection name.
	ErrEmptyCollection = errors.New("collection name cannot be empty")

	// ErrInvalidSource indicates a Source with an unknown kind or no location.
	ErrInvalidSource = errors.New("invalid ingestion source")

	// ErrInvalidTopK indicates a non-positive result limit.
	ErrInvalidTopK = errors.New("top_k must be positive")
)
