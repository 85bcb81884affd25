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


// Package search provides semantic search and analytics over processed
// documents.
//
// The Searcher type embeds the query text and scores it against stored
// document vectors, then narrows by structural filters (type, upload
// date range) and extracted entities. Natural-language queries go
// through an LLM parser that pulls those filters out of the phrasing,
// falling back to plain semantic search when the query cannot be
// parsed.
//
// Beyond retrieval the package answers corpus-level questions:
// aggregation groups documents and totals their monetary amounts, and
// timelines bucket documents by upload period.
package search
