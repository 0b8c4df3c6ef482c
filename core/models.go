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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which makes
// chunk upserts idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is the unit of retrievable text: a bounded segment of a source
// document plus its embedding and positional metadata. Chunks are immutable
// once stored; they disappear only when their collection is dropped.
type Chunk struct {
	Id         ID
	Text       string
	Vector     []float32 // Normalized embedding (populated before upsert)
	Collection string    // Logical collection tag
	ChunkIndex int       // Position within the ingestion batch
}

// SourceKind identifies the type of an ingestion source.
type SourceKind int

const (
	// SourceDocument is a document file on disk (PDF and similar).
	SourceDocument SourceKind = iota + 1
	// SourceURL is a web page to fetch and scrape.
	SourceURL
	// SourceSpreadsheet is a tabular file on disk.
	SourceSpreadsheet
)

// Source describes one ingestion input. The Location is interpreted by the
// extraction collaborator according to Kind.
type Source struct {
	Kind     SourceKind
	Location string
	Label    string // Optional human-readable label for result reporting
}

// DisplayLabel returns the label used in ingestion reports. When no explicit
// label is set, it falls back to a kind-prefixed location.
func (s Source) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	switch s.Kind {
	case SourceURL:
		return fmt.Sprintf("URL: %s", s.Location)
	case SourceSpreadsheet:
		return fmt.Sprintf("Excel: %s", s.Location)
	default:
		return fmt.Sprintf("PDF: %s", s.Location)
	}
}

// SourceChunks reports a successfully ingested source.
type SourceChunks struct {
	Label  string
	Chunks int
}

// SourceFailure reports a source whose extraction failed.
type SourceFailure struct {
	Label string
	Err   string
}

// IngestionResult aggregates the outcome of one ingestion batch.
// Every submitted source appears in exactly one of Succeeded or Failed.
type IngestionResult struct {
	TotalChunks int
	Succeeded   []SourceChunks
	Failed      []SourceFailure
}

// RetrievedDoc is one similarity-search hit.
type RetrievedDoc struct {
	Text       string
	Score      float32
	Collection string
	ChunkIndex int
}

// Turn is one completed question/answer exchange in a conversation.
type Turn struct {
	Query  string
	Answer string
}

// Thread is the durable conversation state for one logical thread,
// persisted whole under its ID. Turns are ordered oldest first.
type Thread struct {
	Id        string
	Turns     []Turn
	UpdatedAt time.Time
}

// Event is an audit record emitted on the outbox and persisted to the
// journal off the response path.
type Event struct {
	Id        ID
	Kind      string
	ThreadId  string
	Detail    string
	Timestamp time.Time
}

// Event kinds written to the journal.
const (
	EventChatCompleted      = "chat_completed"
	EventIngestionCompleted = "ingestion_completed"
	EventContextInjected    = "context_injected"
)
