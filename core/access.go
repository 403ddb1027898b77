package core

import (
	"fmt"
	"time"
)

// GrantScope is the reach of an access grant.
type GrantScope int

const (
	// ScopeSlide grants access to one slide's full content.
	ScopeSlide GrantScope = iota + 1
	// ScopeDeck grants access to the full content of every slide in a deck.
	ScopeDeck
)

// String returns the lowercase name of the scope.
func (s GrantScope) String() string {
	switch s {
	case ScopeSlide:
		return "single-slide"
	case ScopeDeck:
		return "deck"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// RequestState is the state of an access request in the gate's state machine.
type RequestState int

const (
	// RequestStatePending means the request awaits an approver's decision.
	RequestStatePending RequestState = iota + 1
	// RequestStateApproved means a grant was issued for the request.
	RequestStateApproved
	// RequestStateDenied means an approver rejected the request. Terminal.
	RequestStateDenied
)

// String returns the lowercase name of the state.
func (s RequestState) String() string {
	switch s {
	case RequestStatePending:
		return "pending"
	case RequestStateApproved:
		return "approved"
	case RequestStateDenied:
		return "denied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AccessRequest is a requester's petition to view a slide's full content.
type AccessRequest struct {
	Id          string
	SlideId     ID
	DeckId      ID
	RequesterId string
	Reason      string
	State       RequestState
	CreatedAt   time.Time
	DecidedAt   time.Time
	DeciderId   string
	GrantId     string // set when approved
}

// Grant is a time-bounded authorization for a requester to view full content.
// Grants are immutable once issued except for revocation, which is a terminal
// marker rather than a deletion.
type Grant struct {
	Id          string
	RequestId   string
	SlideId     ID
	DeckId      ID
	RequesterId string
	Scope       GrantScope
	Reason      string
	ApproverId  string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Revoked     bool
	RevokedAt   time.Time
	RevokedBy   string
}

// ActiveAt reports whether the grant authorizes access at the given time.
func (g *Grant) ActiveAt(now time.Time) bool {
	return g != nil && !g.Revoked && now.Before(g.ExpiresAt)
}

// Covers reports whether the grant's scope reaches the given slide.
func (g *Grant) Covers(slideId, deckId ID) bool {
	if g == nil {
		return false
	}
	switch g.Scope {
	case ScopeDeck:
		return g.DeckId == deckId
	default:
		return g.SlideId == slideId
	}
}

// AuditAction identifies the kind of event an audit entry records.
type AuditAction int

const (
	// AuditActionSearch records a search call and its result count.
	AuditActionSearch AuditAction = iota + 1
	// AuditActionViewRedacted records delivery of a redacted view.
	AuditActionViewRedacted
	// AuditActionViewOriginal records a full-content view attempt.
	AuditActionViewOriginal
	// AuditActionRequestOriginal records an access request.
	AuditActionRequestOriginal
	// AuditActionGrant records an approval.
	AuditActionGrant
	// AuditActionDeny records a denial.
	AuditActionDeny
	// AuditActionRevoke records a revocation.
	AuditActionRevoke
)

// String returns the audit log name of the action.
func (a AuditAction) String() string {
	switch a {
	case AuditActionSearch:
		return "search"
	case AuditActionViewRedacted:
		return "view-redacted"
	case AuditActionViewOriginal:
		return "view-original"
	case AuditActionRequestOriginal:
		return "request-original"
	case AuditActionGrant:
		return "grant"
	case AuditActionDeny:
		return "deny"
	case AuditActionRevoke:
		return "revoke"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// AuditEntry is one append-only record of a redaction decision or grant
// lifecycle event. Entries are write-once; the log is the sole source of
// truth for who saw what, when.
type AuditEntry struct {
	Seq       uint64 // assigned by the audit log on append
	Timestamp time.Time
	ActorId   string
	SlideId   ID
	Action    AuditAction
	Outcome   string
}
