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

import (
	"fmt"
	"strings"
)

// ValidateSource validates an ingestion Source according to domain rules.
//
// Validation rules:
//   - Kind must be one of the declared source kinds
//   - Location must not be empty
//
// NOT validated:
//   - Label (DisplayLabel falls back to the location)
func ValidateSource(src Source) error {
	switch src.Kind {
	case SourceDocument, SourceURL, SourceSpreadsheet:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidSource, src.Kind)
	}

	if src.Location == "" {
		return fmt.Errorf("%w: location is empty", ErrInvalidSource)
	}

	return nil
}

// ValidateIngestion validates the caller inputs of one ingestion batch.
// An empty source list is rejected before any work starts.
func ValidateIngestion(collection string, sources []Source) error {
	if collection == "" {
		return ErrEmptyCollection
	}

	if len(sources) == 0 {
		return ErrNoSources
	}

	for _, src := range sources {
		if err := ValidateSource(src); err != nil {
			return err
		}
	}

	return nil
}

// ValidateSearch validates the caller inputs of a similarity search.
func ValidateSearch(query string, topK int) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	if topK <= 0 {
		return ErrInvalidTopK
	}

	return nil
}
