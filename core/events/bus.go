// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package events

import (
	"context"

	vgcontext "code.ingotprotocol.io/ingot/libs/context"
)

type Type int

const (
	// All event type -> used by subscribers to just receive all events, has
	// no actual corresponding event payload.
	All Type = iota
	// other event types that DO have corresponding event types.
	TimeUpdate
	AccountEvent
	LedgerMovementsEvent
	VaultStateEvent
	VaultMetricsEvent
	AssetStateEvent
	NetworkParameterEvent
)

var eventStrings = map[Type]string{
	All:                   "ALL",
	TimeUpdate:            "TimeUpdate",
	AccountEvent:          "AccountEvent",
	LedgerMovementsEvent:  "LedgerMovementsEvent",
	VaultStateEvent:       "VaultStateEvent",
	VaultMetricsEvent:     "VaultMetricsEvent",
	AssetStateEvent:       "AssetStateEvent",
	NetworkParameterEvent: "NetworkParameterEvent",
}

func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// Event - the base event interface type. The sequence ID is only set once,
// type assertions on a setter turned out to be a bottleneck in the broker.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	Replace(ctx context.Context)
}

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	seq     uint64
	et      Type
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, traceID := vgcontext.TraceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: traceID,
		et:      t,
	}
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}

// Context returns the context of the event.
func (b Base) Context() context.Context {
	return b.ctx
}

// TraceID returns the... traceID obviously.
func (b *Base) TraceID() string {
	return b.traceID
}

// Sequence returns event sequence number.
func (b Base) Sequence() uint64 {
	return b.seq
}

// SetSequenceID set the event sequence id, should only be called once.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}

// Replace updates the event context, used on replay.
func (b *Base) Replace(ctx context.Context) {
	ctx, traceID := vgcontext.TraceIDFromContext(ctx)
	b.ctx = ctx
	b.traceID = traceID
}
