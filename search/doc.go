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


// Package search provides hybrid keyword and vector search over slide records.
//
// The Ranker runs both index modalities under the same filters and fuses
// their rank lists with reciprocal-rank fusion, avoiding any need to
// calibrate keyword scores against cosine similarities. The Searcher wraps
// the Ranker with query embedding, record retrieval, redacted-view
// projection, and per-query audit entries.
package search
