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


// Package vecstore defines the similarity-search boundary of ragkit: a single
// physical vector collection partitioned into logical collections by a
// metadata tag.
//
// Two implementations are provided:
//
//   - vecstore/qdrant: a Qdrant-backed index using payload-filtered search
//     and a keyword field index on the collection tag
//   - vecstore/memory: an in-process flat index used in tests and as an
//     embedded default when no external engine is configured
//
// Logical collection deletion is implemented as a rebuild (enumerate the
// survivors, recreate the physical collection) because the abstraction does
// not assume the engine supports filtered deletion. See Index.DropCollection.
package vecstore
