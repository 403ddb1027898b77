package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// DefaultTTL bounds grants whose approver did not choose a lifetime.
const DefaultTTL = time.Hour

// Gate owns the access-request state machine:
//
//	NoGrant -> Requested -> Approved -> Expired | Revoked
//	                     -> Denied
//
// Transitions for any one requester are serialized, so a revoke can never
// race a concurrent IsActive check into reporting access after revocation
// has been recorded. Every transition is written to the audit log before
// the transition itself is persisted: a failed append aborts the
// transition, so no grant or decision can ever become visible without its
// audit entry.
type Gate struct {
	grants storage.GrantRepository
	audit  storage.AuditLog
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // keyed by requester id
}

// Option configures a Gate.
type Option func(*Gate) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) error {
		if now != nil {
			g.now = now
		}
		return nil
	}
}

// NewGate creates an access gate over the given repositories.
func NewGate(grants storage.GrantRepository, audit storage.AuditLog, opts ...Option) (*Gate, error) {
	if grants == nil {
		return nil, ErrGrantRepositoryRequired
	}
	if audit == nil {
		return nil, ErrAuditLogRequired
	}

	g := &Gate{
		grants: grants,
		audit:  audit,
		logger: slog.Default(),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// requesterLock returns the mutex serializing transitions for a requester.
func (g *Gate) requesterLock(requesterId string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[requesterId]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[requesterId] = lock
	}
	return lock
}

// RequestOriginal files a request to see a slide's full content. While a
// request for the same slide and requester is already pending, the pending
// request is returned instead of a duplicate.
func (g *Gate) RequestOriginal(ctx context.Context, slideId, deckId core.ID, requesterId, reason string) (*core.AccessRequest, error) {
	lock := g.requesterLock(requesterId)
	lock.Lock()
	defer lock.Unlock()

	existing, err := g.grants.FindPendingRequest(ctx, slideId, requesterId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := g.appendAudit(ctx, requesterId, slideId, core.AuditActionRequestOriginal, "already-pending"); err != nil {
			return nil, err
		}
		return existing, nil
	}

	request := &core.AccessRequest{
		Id:          uuid.NewString(),
		SlideId:     slideId,
		DeckId:      deckId,
		RequesterId: requesterId,
		Reason:      reason,
		State:       core.RequestStatePending,
		CreatedAt:   g.now(),
	}
	// Audit first: the request may only become visible once its entry is
	// durable. A failure after the append leaves an entry for a request
	// that never materialized, which is the fail-closed side of the trade.
	if err := g.appendAudit(ctx, requesterId, slideId, core.AuditActionRequestOriginal, "pending"); err != nil {
		return nil, err
	}
	if err := g.grants.AddRequest(ctx, request); err != nil {
		return nil, err
	}

	g.logger.Info("access requested", "requestId", request.Id, "slideId", slideId, "requesterId", requesterId)
	return request, nil
}

// Approve issues a grant for a pending request. A non-positive ttl falls
// back to DefaultTTL. Approving a request in any other state fails with
// ErrInvalidTransition.
func (g *Gate) Approve(ctx context.Context, requestId, approverId string, scope core.GrantScope, ttl time.Duration) (*core.Grant, error) {
	request, err := g.grants.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}

	lock := g.requesterLock(request.RequesterId)
	lock.Lock()
	defer lock.Unlock()

	// Reread under the lock so a concurrent decision can't be overwritten.
	request, err = g.grants.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if request.State != core.RequestStatePending {
		return nil, fmt.Errorf("%w: cannot approve request %s in state %s", core.ErrInvalidTransition, requestId, request.State)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if scope != core.ScopeDeck {
		scope = core.ScopeSlide
	}

	now := g.now()
	grant := &core.Grant{
		Id:          uuid.NewString(),
		RequestId:   request.Id,
		SlideId:     request.SlideId,
		DeckId:      request.DeckId,
		RequesterId: request.RequesterId,
		Scope:       scope,
		Reason:      request.Reason,
		ApproverId:  approverId,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
	// Audit before the grant exists: if the append fails, no grant was
	// issued and the request stays pending for a retry. The reverse order
	// could leave an active grant with no record of who approved it.
	if err := g.appendAudit(ctx, approverId, request.SlideId, core.AuditActionGrant, "approved"); err != nil {
		return nil, err
	}

	if err := g.grants.AddGrant(ctx, grant); err != nil {
		return nil, err
	}

	request.State = core.RequestStateApproved
	request.DecidedAt = now
	request.DeciderId = approverId
	request.GrantId = grant.Id
	if err := g.grants.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}

	g.logger.Info("access granted", "grantId", grant.Id, "requestId", requestId, "scope", scope, "expiresAt", grant.ExpiresAt)
	return grant, nil
}

// Deny rejects a pending request. Terminal.
func (g *Gate) Deny(ctx context.Context, requestId, deciderId string) error {
	request, err := g.grants.GetRequest(ctx, requestId)
	if err != nil {
		return err
	}

	lock := g.requesterLock(request.RequesterId)
	lock.Lock()
	defer lock.Unlock()

	request, err = g.grants.GetRequest(ctx, requestId)
	if err != nil {
		return err
	}
	if request.State != core.RequestStatePending {
		return fmt.Errorf("%w: cannot deny request %s in state %s", core.ErrInvalidTransition, requestId, request.State)
	}

	if err := g.appendAudit(ctx, deciderId, request.SlideId, core.AuditActionDeny, "denied"); err != nil {
		return err
	}

	request.State = core.RequestStateDenied
	request.DecidedAt = g.now()
	request.DeciderId = deciderId
	return g.grants.UpdateRequest(ctx, request)
}

// Revoke terminates an active grant. Revocation is a marker, never a
// deletion; revoked grants stay visible to GrantsForRequester and the
// audit trail. Revoking an already revoked or expired grant fails with
// ErrInvalidTransition.
func (g *Gate) Revoke(ctx context.Context, grantId, revokerId string) error {
	grant, err := g.grants.GetGrant(ctx, grantId)
	if err != nil {
		return err
	}

	lock := g.requesterLock(grant.RequesterId)
	lock.Lock()
	defer lock.Unlock()

	grant, err = g.grants.GetGrant(ctx, grantId)
	if err != nil {
		return err
	}
	now := g.now()
	if !grant.ActiveAt(now) {
		return fmt.Errorf("%w: grant %s is not active", core.ErrInvalidTransition, grantId)
	}

	if err := g.appendAudit(ctx, revokerId, grant.SlideId, core.AuditActionRevoke, "revoked"); err != nil {
		return err
	}

	grant.Revoked = true
	grant.RevokedAt = now
	grant.RevokedBy = revokerId
	if err := g.grants.UpdateGrant(ctx, grant); err != nil {
		return err
	}

	g.logger.Info("access revoked", "grantId", grantId, "revokerId", revokerId)
	return nil
}

// IsActive reports whether requesterId currently holds an active grant
// covering the slide, either directly or through a deck-scope grant. The
// check runs under the requester's transition lock, so it observes any
// completed revoke.
func (g *Gate) IsActive(ctx context.Context, slideId, deckId core.ID, requesterId string) (bool, error) {
	lock := g.requesterLock(requesterId)
	lock.Lock()
	defer lock.Unlock()

	grants, err := g.grants.GrantsForRequester(ctx, requesterId)
	if err != nil {
		return false, err
	}

	now := g.now()
	for _, grant := range grants {
		// The repository scan is keyed by requester, but access decisions
		// never trust the index alone.
		if grant.RequesterId != requesterId {
			continue
		}
		if grant.ActiveAt(now) && grant.Covers(slideId, deckId) {
			return true, nil
		}
	}
	return false, nil
}

// appendAudit writes one transition entry, durable before return.
func (g *Gate) appendAudit(ctx context.Context, actorId string, slideId core.ID, action core.AuditAction, outcome string) error {
	entry := &core.AuditEntry{
		Timestamp: g.now(),
		ActorId:   actorId,
		SlideId:   slideId,
		Action:    action,
		Outcome:   outcome,
	}
	if err := g.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("recording %s audit entry: %w", action, err)
	}
	return nil
}
