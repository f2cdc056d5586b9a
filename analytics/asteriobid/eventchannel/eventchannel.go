package eventchannel

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/projector"
	"github.com/asteriobid/prebid-analytics/analytics/events"
)

// Packer assembles the drained events into one delivery payload.
type Packer = func(evs []projector.Event) ([]byte, error)

// EventChannel buffers projected events and flushes them as a single
// batch on a fixed interval, immediately when an auctionEnd is queued,
// or when the optional event-count limit is reached. Delivery is
// fire-and-forget: the send outcome is logged, never retried.
type EventChannel struct {
	mux   sync.Mutex
	queue []projector.Event

	pack      Packer
	send      Sender
	clock     clock.Clock
	ticker    *clock.Ticker
	done      chan struct{}
	closeOnce sync.Once
	maxEvents int
}

func NewEventChannel(pack Packer, send Sender, clk clock.Clock, flushInterval time.Duration, maxEvents int) *EventChannel {
	c := &EventChannel{
		pack:      pack,
		send:      send,
		clock:     clk,
		ticker:    clk.Ticker(flushInterval),
		done:      make(chan struct{}),
		maxEvents: maxEvents,
	}
	go c.start()
	return c
}

// Push appends one event to the queue. Queuing an auctionEnd flushes
// immediately; any other kind waits for the ticker.
func (c *EventChannel) Push(ev projector.Event) {
	c.mux.Lock()
	c.queue = append(c.queue, ev)
	count := len(c.queue)
	kind := ev.EventBase().EventType
	c.mux.Unlock()

	if kind == events.AuctionEnd || (c.maxEvents > 0 && count >= c.maxEvents) {
		c.Flush()
	}
}

// Flush drains the queue and hands the batch to the sender. The drain is
// a single swap under the lock, so no event is lost or sent twice. An
// empty queue is a complete no-op: no payload is built and nothing is
// sent.
func (c *EventChannel) Flush() {
	c.mux.Lock()
	drained := c.queue
	c.queue = nil
	c.mux.Unlock()

	if len(drained) == 0 {
		return
	}

	payload, err := c.pack(drained)
	if err != nil {
		glog.Errorf("[asteriobid] fail to serialize events batch: %v", err)
		return
	}

	go func() {
		if err := c.send(payload); err != nil {
			glog.Warningf("[asteriobid] fail to deliver events batch: %v", err)
		}
	}()
}

// Close flushes pending events and stops the ticker.
func (c *EventChannel) Close() {
	c.closeOnce.Do(func() {
		c.Flush()
		c.ticker.Stop()
		close(c.done)
	})
}

func (c *EventChannel) start() {
	for {
		select {
		case <-c.ticker.C:
			c.Flush()
		case <-c.done:
			return
		}
	}
}
