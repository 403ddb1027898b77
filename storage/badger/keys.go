package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/slidevault/core"
)

// Key prefixes for different data types
const (
	slideRecordPrefix    = "slrec"
	slideDeckIndexPrefix = "slrecd"
	deckRecordPrefix     = "dkrec"
	accessRequestPrefix  = "acreq"
	pendingRequestPrefix = "acreqp"
	grantRecordPrefix    = "acgrn"
	grantByUserPrefix    = "acgrnu"
	auditEntryPrefix     = "audent"
	auditSeqName         = "audentseq"
)

// makeSlideRecordKey generates a key for a slide record by ID.
func makeSlideRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", slideRecordPrefix, id))
}

// makeSlideDeckKey generates a composite key for the deck index.
// Format: prefix:deckID:slideID
func makeSlideDeckKey(deckID, slideID core.ID) []byte {
	prefix := slideDeckIndexPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(deckID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(slideID))
	return buf
}

// makePartialSlideDeckKey generates a partial key for deck-scoped scans.
// Format: prefix:deckID
func makePartialSlideDeckKey(deckID core.ID) []byte {
	prefix := slideDeckIndexPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(deckID))
	return buf
}

// makeDeckKey generates a key for deck metadata by ID.
func makeDeckKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", deckRecordPrefix, id))
}

// makeAccessRequestKey generates a key for an access request by its ID.
func makeAccessRequestKey(id string) []byte {
	return []byte(accessRequestPrefix + ":" + id)
}

// makePendingRequestKey generates the pending-marker key for a
// (slide, requester) pair. At most one pending request exists per pair.
func makePendingRequestKey(slideID core.ID, requesterID string) []byte {
	prefix := pendingRequestPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8+len(requesterID))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(slideID))
	offset += 8
	copy(buf[offset:], []byte(requesterID))
	return buf
}

// makeGrantKey generates a key for a grant by its ID.
func makeGrantKey(id string) []byte {
	return []byte(grantRecordPrefix + ":" + id)
}

// makeGrantByUserKey generates a composite key for the per-requester
// grant index. Format: prefix:len(requesterID):requesterID:grantID
// The BigEndian length component keeps requester ids self-delimiting, so a
// scan for one requester can never match another requester whose id happens
// to extend it.
func makeGrantByUserKey(requesterID, grantID string) []byte {
	prefix := grantByUserPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8+len(requesterID)+len(grantID))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(len(requesterID)))
	offset += 8
	offset += copy(buf[offset:], requesterID)
	copy(buf[offset:], grantID)
	return buf
}

// makePartialGrantByUserKey generates a partial key for per-requester scans.
func makePartialGrantByUserKey(requesterID string) []byte {
	prefix := grantByUserPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8+len(requesterID))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(len(requesterID)))
	offset += 8
	copy(buf[offset:], requesterID)
	return buf
}

// makeAuditEntryKey generates a key for an audit entry by sequence number.
// BigEndian so iteration yields append order.
func makeAuditEntryKey(seq uint64) []byte {
	prefix := auditEntryPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
