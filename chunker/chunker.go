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


// Package chunker splits extracted text into overlapping segments sized for
// embedding. Splits prefer natural boundaries (paragraph, then sentence/line,
// then word) and fall back to hard character cuts for unbroken runs.
package chunker

import (
	"log/slog"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 200
)

// Chunker produces overlapping text segments in original left-to-right order.
// A Chunker is immutable after construction and safe for concurrent use.
type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the target chunk size in characters.
// Default is DefaultChunkSize.
func WithSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
// Default is DefaultChunkOverlap.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Chunker. Overlap larger than size is clamped to size/2.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
		logger:  slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 2
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
	return c
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured chunk overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into overlapping chunks in document order.
// Empty or whitespace-only input yields an empty slice, not an error.
func (c *Chunker) Split(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}

	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		c.logger.Error("failed to split text", "length", len(text), "err", err)
		return nil, err
	}

	c.logger.Debug("split text", "length", len(text), "chunks", len(chunks))
	return chunks, nil
}
