// Package gate implements the access-request state machine for original
// slide content. Requests move from pending to approved or denied; approved
// requests carry a time-bounded grant that can later expire or be revoked.
// All transitions for one requester are mutually exclusive and audited.
package gate
