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


// Package redaction builds sanitized slide views and guards original content.
//
// Redaction is structural, not pattern-based: the redacted view is a fixed
// projection of safe fields, so raw text and speaker notes can never leak
// through it. Original content is only released through FullView, which
// consults the access gate and records the attempt in the audit log.
package redaction
