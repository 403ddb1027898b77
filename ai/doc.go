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


// Package ai defines the boundary contract for external model services.
//
// The subsystem needs two model capabilities: text embeddings for the vector
// index, and slide summaries for redacted views. This package holds the
// interfaces and shared configuration; the openai subpackage talks to any
// OpenAI-compatible endpoint, and the mock subpackage provides deterministic
// implementations for tests.
//
// Model internals are out of scope here. An implementation only has to honor
// the interface contracts and be safe for concurrent use.
package ai
