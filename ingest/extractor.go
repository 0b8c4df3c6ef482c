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


package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/poiesic/ragkit/core"
)

// Extractor turns a source into plain text. Implementations handle the
// format-specific work (PDF parsing, web scraping, spreadsheet reading);
// the orchestrator only sees text.
type Extractor interface {
	Extract(ctx context.Context, source core.Source) (string, error)
}

// FileExtractor reads sources whose Location is a plain-text file on disk.
// It serves as the default extractor for local ingestion; richer formats
// plug in their own Extractor.
type FileExtractor struct{}

var _ Extractor = (*FileExtractor)(nil)

// Extract reads the file at the source location.
func (FileExtractor) Extract(ctx context.Context, source core.Source) (string, error) {
	data, err := os.ReadFile(source.Location)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", source.Location, err)
	}
	return string(data), nil
}
