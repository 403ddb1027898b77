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

// Domain errors
var (
	// ErrIngestion indicates a slide record is too incomplete to index.
	ErrIngestion = errors.New("slide record not ingestible")

	// ErrMissingSummary indicates the record has no summary.
	ErrMissingSummary = errors.New("summary missing")

	// ErrMissingEmbedding indicates the record has no embedding vector.
	ErrMissingEmbedding = errors.New("embedding missing")

	// ErrAccessDenied indicates no active grant authorizes the caller.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTransition indicates an access-gate state machine violation.
	ErrInvalidTransition = errors.New("invalid access state transition")

	// ErrTimeout indicates a caller-supplied bound was exceeded.
	ErrTimeout = errors.New("operation timed out")

	// ErrSearchUnavailable indicates search is degraded, as distinct from
	// a query that matched nothing.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrInvalidSlideRecord indicates a SlideRecord failed validation.
	ErrInvalidSlideRecord = errors.New("invalid slide record")

	// ErrInvalidClassification indicates an unknown classification value.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrInvalidFilters indicates a malformed filter set.
	ErrInvalidFilters = errors.New("invalid filters")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
