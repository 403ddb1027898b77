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
	"time"
)

// ValidateSlideRecord validates a SlideRecord according to domain rules.
//
// Validation rules:
//   - Id, DeckId must be set and Id must match SlideIDFor(DeckId, SlideNumber)
//   - SlideNumber must be 1-based
//   - UploadedAt must not be in the future
//   - Classification must be a known value
//
// NOT validated (populated by the external model or enrichment pipeline):
//   - Summary and Vector (missing values exclude the record from search
//     instead of failing validation)
//   - SensitiveSpans (supplied by the external detector)
func ValidateSlideRecord(record *SlideRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidSlideRecord)
	}
	if record.DeckId == 0 {
		return fmt.Errorf("%w: deck id not set", ErrInvalidSlideRecord)
	}
	if record.SlideNumber < 1 {
		return fmt.Errorf("%w: slide number %d is not 1-based", ErrInvalidSlideRecord, record.SlideNumber)
	}
	if record.Id != SlideIDFor(record.DeckId, record.SlideNumber) {
		return fmt.Errorf("%w: id does not derive from deck and slide number", ErrInvalidSlideRecord)
	}
	if !IsValidTimestamp(record.UploadedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidSlideRecord, ErrInvalidTimestamp)
	}
	if record.Classification < ClassificationPublic || record.Classification > ClassificationConfidential {
		return fmt.Errorf("%w: %w: %d", ErrInvalidSlideRecord, ErrInvalidClassification, int(record.Classification))
	}
	return nil
}

// IsValidTimestamp reports whether the timestamp is set and not in the future.
// A small skew allowance covers clock drift between collaborators.
func IsValidTimestamp(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.After(time.Now().UTC().Add(5 * time.Minute))
}
