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


package redaction

import "errors"

var (
	// ErrSlideRepositoryRequired is returned when a slide repository is not provided.
	ErrSlideRepositoryRequired = errors.New("slide repository required")

	// ErrGrantCheckerRequired is returned when a grant checker is not provided.
	ErrGrantCheckerRequired = errors.New("grant checker required")

	// ErrAuditLogRequired is returned when an audit log is not provided.
	ErrAuditLogRequired = errors.New("audit log required")
)
