//go:build !race
// +build !race

package broker_test

import (
	"context"
	"sync"
	"testing"

	"code.ingotprotocol.io/ingot/core/broker"
	"code.ingotprotocol.io/ingot/core/broker/mocks"
	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

type brokerTst struct {
	*broker.Broker
	cfunc context.CancelFunc
	ctx   context.Context
	ctrl  *gomock.Controller
}

type evt struct {
	t   events.Type
	ctx context.Context
	sid uint64
	id  string
}

func getBroker(t *testing.T) *brokerTst {
	t.Helper()
	ctx, cfunc := context.WithCancel(context.Background())
	ctrl := gomock.NewController(t)
	b := broker.New(ctx, logging.NewTestLogger(), broker.NewDefaultConfig())
	return &brokerTst{
		Broker: b,
		cfunc:  cfunc,
		ctx:    ctx,
		ctrl:   ctrl,
	}
}

func (b brokerTst) randomEvt() *evt {
	return &evt{
		t:   events.All,
		ctx: b.ctx,
		id:  "generic-id",
	}
}

func (b *brokerTst) Finish() {
	b.cfunc()
	b.ctrl.Finish()
}

func TestSubscribe(t *testing.T) {
	t.Run("Subscribe and unsubscribe required - success", testSubUnsubSuccess)
	t.Run("Subscribe reuses keys", testSubReuseKey)
	t.Run("Unsubscribe automatically if subscriber is closed", testAutoUnsubscribe)
}

func TestSendEvent(t *testing.T) {
	t.Run("Skip optional subscribers", testSkipOptional)
	t.Run("Send only to typed subscriber", testEventTypeSubscription)
}

func testSubUnsubSuccess(t *testing.T) {
	tstBroker := getBroker(t)
	defer tstBroker.Finish()
	sub := mocks.NewMockSubscriber(tstBroker.ctrl)
	reqSub := mocks.NewMockSubscriber(tstBroker.ctrl)
	// subscribe + unsubscribe -> 2 calls
	sub.EXPECT().Types().Times(2).Return(nil)
	sub.EXPECT().Ack().Times(1).Return(false)
	sub.EXPECT().SetID(gomock.Any()).Times(1)
	reqSub.EXPECT().Types().Times(2).Return(nil)
	reqSub.EXPECT().Ack().Times(1).Return(true)
	reqSub.EXPECT().SetID(gomock.Any()).Times(1)
	k1 := tstBroker.Subscribe(sub)    // not required
	k2 := tstBroker.Subscribe(reqSub) // required
	assert.NotZero(t, k1)
	assert.NotZero(t, k2)
	assert.NotEqual(t, k1, k2)
	tstBroker.Unsubscribe(k1)
	tstBroker.Unsubscribe(k2)
	// no calls to subs expected once they are unsubscribed
	tstBroker.Send(tstBroker.randomEvt())
}

func testSubReuseKey(t *testing.T) {
	tstBroker := getBroker(t)
	defer tstBroker.Finish()
	sub := mocks.NewMockSubscriber(tstBroker.ctrl)
	sub.EXPECT().Types().Times(4).Return(nil)
	sub.EXPECT().SetID(gomock.Any()).Times(2)
	sub.EXPECT().Ack().Times(1).Return(false)
	k1 := tstBroker.Subscribe(sub)
	sub.EXPECT().Ack().Times(1).Return(true)
	assert.NotZero(t, k1)
	tstBroker.Unsubscribe(k1)
	k2 := tstBroker.Subscribe(sub)
	assert.Equal(t, k1, k2)
	tstBroker.Unsubscribe(k2)
	// second unsubscribe is a no-op
	tstBroker.Unsubscribe(k1)
}

func testAutoUnsubscribe(t *testing.T) {
	tstBroker := getBroker(t)
	defer tstBroker.Finish()
	sub := mocks.NewMockSubscriber(tstBroker.ctrl)
	// sub, auto-unsub, sub again
	sub.EXPECT().Types().Times(3).Return(nil)
	sub.EXPECT().SetID(gomock.Any()).Times(2)
	sub.EXPECT().Ack().Times(1).Return(true)
	k1 := tstBroker.Subscribe(sub)
	assert.NotZero(t, k1)
	// set up sub to be closed
	skipCh := make(chan struct{})
	closedCh := make(chan struct{})
	wg := sync.WaitGroup{}
	wg.Add(1)
	defer func() {
		close(skipCh)
	}()
	// close the closed channel, so the subscriber is marked as closed when
	// we try to send an event
	close(closedCh)
	sub.EXPECT().Skip().AnyTimes().Return(skipCh)
	sub.EXPECT().Closed().AnyTimes().Return(closedCh).Do(func() {
		wg.Done()
	})
	// send an event, the subscriber should be marked as closed, and automatically unsubscribed
	tstBroker.Send(tstBroker.randomEvt())
	// the unsubscribe call acquires its own lock, so it's possible we
	// haven't unsubscribed yet. The waitgroup introduces enough time.
	wg.Wait()
	// now try and subscribe again, the key should be reused
	sub.EXPECT().Ack().Times(1).Return(false)
	k2 := tstBroker.Subscribe(sub)
	assert.Equal(t, k1, k2)
}

func testSkipOptional(t *testing.T) {
	tstBroker := getBroker(t)
	sub := mocks.NewMockSubscriber(tstBroker.ctrl)
	skipCh, closedCh, cCh := make(chan struct{}), make(chan struct{}), make(chan []events.Event, 1)
	defer func() {
		tstBroker.Finish()
		close(closedCh)
		close(skipCh)
	}()
	twg := sync.WaitGroup{}
	twg.Add(2)
	sub.EXPECT().Types().Times(2).Return(nil).Do(func() {
		twg.Done()
	})
	sub.EXPECT().SetID(gomock.Any()).Times(1)
	sub.EXPECT().Ack().AnyTimes().Return(false)
	k1 := tstBroker.Subscribe(sub)
	assert.NotZero(t, k1)

	evts := []*evt{
		tstBroker.randomEvt(),
		tstBroker.randomEvt(),
		tstBroker.randomEvt(),
	}
	// ensure all 3 events are being sent (wait for routine to spawn)
	wg := sync.WaitGroup{}
	wg.Add(len(evts)*2 - 1)
	sub.EXPECT().Closed().AnyTimes().Return(closedCh)
	sub.EXPECT().Skip().AnyTimes().Return(skipCh)
	// we try to get the channel 3 times, only 1 of the attempts will
	// actually publish the event, the other 2 attempts run in a routine
	sub.EXPECT().C().Times(len(evts)*2 - 1).Return(cCh).Do(func() {
		wg.Done()
	})

	for _, e := range evts {
		tstBroker.Send(e)
	}
	wg.Wait()
	// we've tried to send 3 events, subscriber could only accept one.
	// unsubscribe before closing the channels the mock returns.
	tstBroker.Unsubscribe(k1)
	twg.Wait()

	seq := map[uint64]struct{}{}
	for i := len(evts); i != 0; i-- {
		ev := <-cCh
		assert.NotEmpty(t, ev)
		for _, e := range ev {
			seq[e.Sequence()] = struct{}{}
		}
	}
	for _, ev := range evts {
		if _, ok := seq[ev.Sequence()]; !ok {
			t.Fatalf("missing event sequence from received events %v", ev.Sequence())
		}
	}
	// make sure the channel is empty (no writes were pending)
	assert.Equal(t, 0, len(cCh))
}

func testEventTypeSubscription(t *testing.T) {
	tstBroker := getBroker(t)
	defer tstBroker.Finish()
	timeSub := mocks.NewMockSubscriber(tstBroker.ctrl)
	allSub := mocks.NewMockSubscriber(tstBroker.ctrl)
	skipCh, closedCh := make(chan struct{}), make(chan struct{})
	wg := sync.WaitGroup{}
	wg.Add(2)
	event := &evt{
		t:   events.TimeUpdate,
		ctx: tstBroker.ctx,
		id:  "time-event",
	}
	// a subscriber for the time event type only
	timeSub.EXPECT().Types().Times(2).Return([]events.Type{events.TimeUpdate})
	timeSub.EXPECT().SetID(gomock.Any()).Times(1)
	timeSub.EXPECT().Ack().AnyTimes().Return(true)
	timeSub.EXPECT().Skip().AnyTimes().Return(skipCh)
	timeSub.EXPECT().Closed().AnyTimes().Return(closedCh)
	timeSub.EXPECT().Push(gomock.Any()).Times(1).Do(func(_ ...events.Event) {
		wg.Done()
	})
	// an ALL subscriber gets the typed event, too
	allSub.EXPECT().Types().Times(2).Return(nil)
	allSub.EXPECT().SetID(gomock.Any()).Times(1)
	allSub.EXPECT().Ack().AnyTimes().Return(true)
	allSub.EXPECT().Skip().AnyTimes().Return(skipCh)
	allSub.EXPECT().Closed().AnyTimes().Return(closedCh)
	allSub.EXPECT().Push(gomock.Any()).Times(1).Do(func(_ ...events.Event) {
		wg.Done()
	})
	k1 := tstBroker.Subscribe(timeSub)
	k2 := tstBroker.Subscribe(allSub)
	tstBroker.Send(event)
	wg.Wait()
	tstBroker.Unsubscribe(k1)
	tstBroker.Unsubscribe(k2)
	close(skipCh)
	close(closedCh)
}

func (e evt) Type() events.Type {
	return e.t
}

func (e evt) Context() context.Context {
	return e.ctx
}

func (e *evt) SetSequenceID(s uint64) {
	e.sid = s
}

func (e evt) Sequence() uint64 {
	return e.sid
}

func (e evt) TraceID() string {
	return e.id
}

func (e *evt) Replace(ctx context.Context) {
	e.ctx = ctx
}
