package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored domain types. Field order is part of the
// on-disk format; append new fields, never reorder.

// IDMUS serializes IDs.
var IDMUS = idSer{}

// SlideRecordMUS serializes SlideRecords.
var SlideRecordMUS = slideRecordSer{}

// DeckMUS serializes Decks.
var DeckMUS = deckSer{}

// AccessRequestMUS serializes AccessRequests.
var AccessRequestMUS = accessRequestSer{}

// GrantMUS serializes Grants.
var GrantMUS = grantSer{}

// AuditEntryMUS serializes AuditEntries.
var AuditEntryMUS = auditEntrySer{}

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// Timestamps are stored as microseconds since the Unix epoch, with an
// explicit flag so the zero time survives a round trip.

type timeSer struct{}

var timeMUS = timeSer{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(t.IsZero(), bs)
	if t.IsZero() {
		return
	}
	n += varint.Int64.Marshal(t.UnixMicro(), bs[n:])
	return
}

func (timeSer) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	zero, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || zero {
		return
	}
	var micros int64
	var n1 int
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t = time.UnixMicro(micros).UTC()
	return
}

func (timeSer) Size(t time.Time) (size int) {
	size = ord.Bool.Size(t.IsZero())
	if !t.IsZero() {
		size += varint.Int64.Size(t.UnixMicro())
	}
	return
}

func marshalLen(l int, bs []byte) int {
	return varint.Int.Marshal(l, bs)
}

func unmarshalLen(bs []byte) (int, int, error) {
	l, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if l < 0 {
		return 0, n, fmt.Errorf("negative length %d", l)
	}
	return l, n, nil
}

type stringSliceSer struct{}

var stringSliceMUS = stringSliceSer{}

func (stringSliceSer) Marshal(v []string, bs []byte) (n int) {
	n = marshalLen(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (stringSliceSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil || l == 0 {
		return
	}
	v = make([]string, l)
	var n1 int
	for i := 0; i < l; i++ {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (stringSliceSer) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return
}

type vectorSer struct{}

var vectorMUS = vectorSer{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = marshalLen(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil || l == 0 {
		return
	}
	v = make([]float32, l)
	var n1 int
	for i := 0; i < l; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (vectorSer) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

type shapeSer struct{}

var shapeMUS = shapeSer{}

func (shapeSer) Marshal(s Shape, bs []byte) (n int) {
	n = ord.String.Marshal(s.Name, bs)
	n += ord.String.Marshal(s.Kind, bs[n:])
	n += ord.Bool.Marshal(s.HasText, bs[n:])
	n += ord.Bool.Marshal(s.IsPlaceholder, bs[n:])
	n += ord.Bool.Marshal(s.IsImage, bs[n:])
	n += varint.Int64.Marshal(s.Box.Left, bs[n:])
	n += varint.Int64.Marshal(s.Box.Top, bs[n:])
	n += varint.Int64.Marshal(s.Box.Width, bs[n:])
	n += varint.Int64.Marshal(s.Box.Height, bs[n:])
	return
}

func (shapeSer) Unmarshal(bs []byte) (s Shape, n int, err error) {
	var n1 int
	if s.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if s.Kind, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.HasText, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.IsPlaceholder, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.IsImage, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Box.Left, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Box.Top, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Box.Width, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Box.Height, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return
}

func (shapeSer) Size(s Shape) int {
	return ord.String.Size(s.Name) +
		ord.String.Size(s.Kind) +
		ord.Bool.Size(s.HasText) +
		ord.Bool.Size(s.IsPlaceholder) +
		ord.Bool.Size(s.IsImage) +
		varint.Int64.Size(s.Box.Left) +
		varint.Int64.Size(s.Box.Top) +
		varint.Int64.Size(s.Box.Width) +
		varint.Int64.Size(s.Box.Height)
}

type spanSer struct{}

var spanMUS = spanSer{}

func (spanSer) Marshal(s SensitiveSpan, bs []byte) (n int) {
	n = varint.Int.Marshal(int(s.Source), bs)
	n += varint.Int.Marshal(s.Fragment, bs[n:])
	n += varint.Int.Marshal(s.Start, bs[n:])
	n += varint.Int.Marshal(s.End, bs[n:])
	return
}

func (spanSer) Unmarshal(bs []byte) (s SensitiveSpan, n int, err error) {
	var v, n1 int
	if v, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	s.Source = SpanSource(v)
	if s.Fragment, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.Start, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.End, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return
}

func (spanSer) Size(s SensitiveSpan) int {
	return varint.Int.Size(int(s.Source)) +
		varint.Int.Size(s.Fragment) +
		varint.Int.Size(s.Start) +
		varint.Int.Size(s.End)
}

type slideRecordSer struct{}

func (slideRecordSer) Marshal(r SlideRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += IDMUS.Marshal(r.DeckId, bs[n:])
	n += varint.Int.Marshal(r.SlideNumber, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += stringSliceMUS.Marshal(r.RawText, bs[n:])
	n += ord.String.Marshal(r.Notes, bs[n:])
	n += ord.String.Marshal(r.LayoutName, bs[n:])
	n += marshalLen(len(r.Shapes), bs[n:])
	for _, s := range r.Shapes {
		n += shapeMUS.Marshal(s, bs[n:])
	}
	n += ord.String.Marshal(r.Summary, bs[n:])
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	n += stringSliceMUS.Marshal(r.Tags, bs[n:])
	n += ord.String.Marshal(r.Uploader, bs[n:])
	n += timeMUS.Marshal(r.UploadedAt, bs[n:])
	n += varint.Int.Marshal(int(r.Classification), bs[n:])
	n += marshalLen(len(r.SensitiveSpans), bs[n:])
	for _, s := range r.SensitiveSpans {
		n += spanMUS.Marshal(s, bs[n:])
	}
	n += ord.String.Marshal(r.ThumbnailRef, bs[n:])
	n += timeMUS.Marshal(r.InsertedAt, bs[n:])
	n += timeMUS.Marshal(r.UpdatedAt, bs[n:])
	return
}

func (slideRecordSer) Unmarshal(bs []byte) (r SlideRecord, n int, err error) {
	var n1, l, v int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.DeckId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.SlideNumber, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.RawText, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Notes, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.LayoutName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if l, n1, err = unmarshalLen(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if l > 0 {
		r.Shapes = make([]Shape, l)
		for i := 0; i < l; i++ {
			if r.Shapes[i], n1, err = shapeMUS.Unmarshal(bs[n:]); err != nil {
				return r, n + n1, err
			}
			n += n1
		}
	}
	if r.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Tags, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Uploader, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.UploadedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.Classification = Classification(v)
	if l, n1, err = unmarshalLen(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if l > 0 {
		r.SensitiveSpans = make([]SensitiveSpan, l)
		for i := 0; i < l; i++ {
			if r.SensitiveSpans[i], n1, err = spanMUS.Unmarshal(bs[n:]); err != nil {
				return r, n + n1, err
			}
			n += n1
		}
	}
	if r.ThumbnailRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return
}

func (slideRecordSer) Size(r SlideRecord) (size int) {
	size = IDMUS.Size(r.Id) +
		IDMUS.Size(r.DeckId) +
		varint.Int.Size(r.SlideNumber) +
		ord.String.Size(r.Title) +
		stringSliceMUS.Size(r.RawText) +
		ord.String.Size(r.Notes) +
		ord.String.Size(r.LayoutName) +
		varint.Int.Size(len(r.Shapes))
	for _, s := range r.Shapes {
		size += shapeMUS.Size(s)
	}
	size += ord.String.Size(r.Summary) +
		vectorMUS.Size(r.Vector) +
		stringSliceMUS.Size(r.Tags) +
		ord.String.Size(r.Uploader) +
		timeMUS.Size(r.UploadedAt) +
		varint.Int.Size(int(r.Classification)) +
		varint.Int.Size(len(r.SensitiveSpans))
	for _, s := range r.SensitiveSpans {
		size += spanMUS.Size(s)
	}
	size += ord.String.Size(r.ThumbnailRef) +
		timeMUS.Size(r.InsertedAt) +
		timeMUS.Size(r.UpdatedAt)
	return
}

type deckSer struct{}

func (deckSer) Marshal(d Deck, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Name, bs[n:])
	n += varint.Int.Marshal(d.SlideCount, bs[n:])
	n += varint.Int64.Marshal(d.SlideWidth, bs[n:])
	n += varint.Int64.Marshal(d.SlideHeight, bs[n:])
	n += ord.String.Marshal(d.Uploader, bs[n:])
	n += timeMUS.Marshal(d.UploadedAt, bs[n:])
	return
}

func (deckSer) Unmarshal(bs []byte) (d Deck, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SlideCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SlideWidth, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SlideHeight, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Uploader, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UploadedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return
}

func (deckSer) Size(d Deck) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.Name) +
		varint.Int.Size(d.SlideCount) +
		varint.Int64.Size(d.SlideWidth) +
		varint.Int64.Size(d.SlideHeight) +
		ord.String.Size(d.Uploader) +
		timeMUS.Size(d.UploadedAt)
}

type accessRequestSer struct{}

func (accessRequestSer) Marshal(r AccessRequest, bs []byte) (n int) {
	n = ord.String.Marshal(r.Id, bs)
	n += IDMUS.Marshal(r.SlideId, bs[n:])
	n += IDMUS.Marshal(r.DeckId, bs[n:])
	n += ord.String.Marshal(r.RequesterId, bs[n:])
	n += ord.String.Marshal(r.Reason, bs[n:])
	n += varint.Int.Marshal(int(r.State), bs[n:])
	n += timeMUS.Marshal(r.CreatedAt, bs[n:])
	n += timeMUS.Marshal(r.DecidedAt, bs[n:])
	n += ord.String.Marshal(r.DeciderId, bs[n:])
	n += ord.String.Marshal(r.GrantId, bs[n:])
	return
}

func (accessRequestSer) Unmarshal(bs []byte) (r AccessRequest, n int, err error) {
	var n1, v int
	if r.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.SlideId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.DeckId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.RequesterId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Reason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.State = RequestState(v)
	if r.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.DecidedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.DeciderId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.GrantId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return
}

func (accessRequestSer) Size(r AccessRequest) int {
	return ord.String.Size(r.Id) +
		IDMUS.Size(r.SlideId) +
		IDMUS.Size(r.DeckId) +
		ord.String.Size(r.RequesterId) +
		ord.String.Size(r.Reason) +
		varint.Int.Size(int(r.State)) +
		timeMUS.Size(r.CreatedAt) +
		timeMUS.Size(r.DecidedAt) +
		ord.String.Size(r.DeciderId) +
		ord.String.Size(r.GrantId)
}

type grantSer struct{}

func (grantSer) Marshal(g Grant, bs []byte) (n int) {
	n = ord.String.Marshal(g.Id, bs)
	n += ord.String.Marshal(g.RequestId, bs[n:])
	n += IDMUS.Marshal(g.SlideId, bs[n:])
	n += IDMUS.Marshal(g.DeckId, bs[n:])
	n += ord.String.Marshal(g.RequesterId, bs[n:])
	n += varint.Int.Marshal(int(g.Scope), bs[n:])
	n += ord.String.Marshal(g.Reason, bs[n:])
	n += ord.String.Marshal(g.ApproverId, bs[n:])
	n += timeMUS.Marshal(g.IssuedAt, bs[n:])
	n += timeMUS.Marshal(g.ExpiresAt, bs[n:])
	n += ord.Bool.Marshal(g.Revoked, bs[n:])
	n += timeMUS.Marshal(g.RevokedAt, bs[n:])
	n += ord.String.Marshal(g.RevokedBy, bs[n:])
	return
}

func (grantSer) Unmarshal(bs []byte) (g Grant, n int, err error) {
	var n1, v int
	if g.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if g.RequestId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.SlideId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.DeckId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.RequesterId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	g.Scope = GrantScope(v)
	if g.Reason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.ApproverId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.IssuedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.ExpiresAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.Revoked, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.RevokedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	if g.RevokedBy, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return g, n + n1, err
	}
	n += n1
	return
}

func (grantSer) Size(g Grant) int {
	return ord.String.Size(g.Id) +
		ord.String.Size(g.RequestId) +
		IDMUS.Size(g.SlideId) +
		IDMUS.Size(g.DeckId) +
		ord.String.Size(g.RequesterId) +
		varint.Int.Size(int(g.Scope)) +
		ord.String.Size(g.Reason) +
		ord.String.Size(g.ApproverId) +
		timeMUS.Size(g.IssuedAt) +
		timeMUS.Size(g.ExpiresAt) +
		ord.Bool.Size(g.Revoked) +
		timeMUS.Size(g.RevokedAt) +
		ord.String.Size(g.RevokedBy)
}

type auditEntrySer struct{}

func (auditEntrySer) Marshal(e AuditEntry, bs []byte) (n int) {
	n = varint.Uint64.Marshal(e.Seq, bs)
	n += timeMUS.Marshal(e.Timestamp, bs[n:])
	n += ord.String.Marshal(e.ActorId, bs[n:])
	n += IDMUS.Marshal(e.SlideId, bs[n:])
	n += varint.Int.Marshal(int(e.Action), bs[n:])
	n += ord.String.Marshal(e.Outcome, bs[n:])
	return
}

func (auditEntrySer) Unmarshal(bs []byte) (e AuditEntry, n int, err error) {
	var n1, v int
	if e.Seq, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if e.Timestamp, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.ActorId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.SlideId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	e.Action = AuditAction(v)
	if e.Outcome, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return
}

func (auditEntrySer) Size(e AuditEntry) int {
	return varint.Uint64.Size(e.Seq) +
		timeMUS.Size(e.Timestamp) +
		ord.String.Size(e.ActorId) +
		IDMUS.Size(e.SlideId) +
		varint.Int.Size(int(e.Action)) +
		ord.String.Size(e.Outcome)
}
