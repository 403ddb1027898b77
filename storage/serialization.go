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


package storage

import (
	"github.com/poiesic/slidevault/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalSlideRecord serializes a SlideRecord to bytes.
func MarshalSlideRecord(record *core.SlideRecord) []byte {
	buf := make([]byte, core.SlideRecordMUS.Size(*record))
	core.SlideRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalSlideRecord deserializes a SlideRecord from bytes.
func UnmarshalSlideRecord(data []byte) (*core.SlideRecord, error) {
	record, _, err := core.SlideRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalDeck serializes a Deck to bytes.
func MarshalDeck(deck *core.Deck) []byte {
	buf := make([]byte, core.DeckMUS.Size(*deck))
	core.DeckMUS.Marshal(*deck, buf)
	return buf
}

// UnmarshalDeck deserializes a Deck from bytes.
func UnmarshalDeck(data []byte) (*core.Deck, error) {
	deck, _, err := core.DeckMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

// MarshalAccessRequest serializes an AccessRequest to bytes.
func MarshalAccessRequest(request *core.AccessRequest) []byte {
	buf := make([]byte, core.AccessRequestMUS.Size(*request))
	core.AccessRequestMUS.Marshal(*request, buf)
	return buf
}

// UnmarshalAccessRequest deserializes an AccessRequest from bytes.
func UnmarshalAccessRequest(data []byte) (*core.AccessRequest, error) {
	request, _, err := core.AccessRequestMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// MarshalGrant serializes a Grant to bytes.
func MarshalGrant(grant *core.Grant) []byte {
	buf := make([]byte, core.GrantMUS.Size(*grant))
	core.GrantMUS.Marshal(*grant, buf)
	return buf
}

// UnmarshalGrant deserializes a Grant from bytes.
func UnmarshalGrant(data []byte) (*core.Grant, error) {
	grant, _, err := core.GrantMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// MarshalAuditEntry serializes an AuditEntry to bytes.
func MarshalAuditEntry(entry *core.AuditEntry) []byte {
	buf := make([]byte, core.AuditEntryMUS.Size(*entry))
	core.AuditEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalAuditEntry deserializes an AuditEntry from bytes.
func UnmarshalAuditEntry(data []byte) (*core.AuditEntry, error) {
	entry, _, err := core.AuditEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
