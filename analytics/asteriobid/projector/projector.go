package projector

import (
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/asteriobid/prebid-analytics/analytics/events"
)

// Projector turns raw lifecycle events into queueable records and threads
// cross-event state between them: auction start times and timeouts, the
// per-ad-unit floor cache, the last winning bid per ad unit and the page
// content category. State lives for the session and is keyed by auction
// or ad-unit identifiers, since events from concurrent auctions interleave
// in arrival order.
type Projector struct {
	mux             sync.RWMutex
	clock           clock.Clock
	auctionStarts   map[string]int64
	auctionTimeouts map[string]int64
	floors          map[string]float64
	winningBids     map[string]*events.Bid
	category        Category
	prebidTimeout   *int64

	// onBidWon is invoked, outside the state lock, for every projected
	// bidWon so the caller can arm viewability tracking.
	onBidWon func(adUnitCode string)
}

func New(clk clock.Clock, onBidWon func(adUnitCode string)) *Projector {
	return &Projector{
		clock:           clk,
		auctionStarts:   map[string]int64{},
		auctionTimeouts: map[string]int64{},
		floors:          map[string]float64{},
		winningBids:     map[string]*events.Bid{},
		onBidWon:        onBidWon,
	}
}

// Project maps one raw event to its queueable projection. The second
// return value is false for kinds that are not tracked or payloads of an
// unexpected shape; the caller must treat that as a no-op.
func (p *Projector) Project(kind events.Kind, payload any) (Event, bool) {
	ev, ok, armCode := p.project(kind, payload)
	if armCode != "" && p.onBidWon != nil {
		p.onBidWon(armCode)
	}
	return ev, ok
}

func (p *Projector) project(kind events.Kind, payload any) (Event, bool, string) {
	p.mux.Lock()
	defer p.mux.Unlock()

	base := Base{Timestamp: p.now(), EventType: kind}
	p.capturePrebidTimeout(payload)

	switch kind {
	case events.AuctionInit:
		a, ok := payload.(*events.AuctionDetails)
		if !ok || a == nil {
			return nil, false, ""
		}
		if a.Timestamp != 0 {
			base.Timestamp = a.Timestamp
		}
		ev := &AuctionInitEvent{
			Base:      base,
			AuctionID: a.AuctionID,
		}
		for _, au := range a.AdUnits {
			ev.AdUnits = append(ev.AdUnits, trimAdUnit(au))
		}
		for _, br := range a.BidderRequests {
			ev.BidderRequests = append(ev.BidderRequests, p.trimBidderRequest(br))
		}
		p.auctionStarts[a.AuctionID] = base.Timestamp
		if a.Timeout != 0 {
			p.auctionTimeouts[a.AuctionID] = a.Timeout
		}
		return ev, true, ""

	case events.AuctionEnd:
		a, ok := payload.(*events.AuctionDetails)
		if !ok || a == nil {
			return nil, false, ""
		}
		// The adapter's own clock is authoritative for start and end;
		// values supplied in the raw payload are ignored.
		ev := &AuctionEndEvent{
			Base:                 base,
			AuctionID:            a.AuctionID,
			Start:                p.auctionStarts[a.AuctionID],
			End:                  p.now(),
			AdUnitCodes:          a.AdUnitCodes,
			AdUnitCodeToBidFloor: p.floorSnapshot(),
		}
		for _, b := range a.BidsReceived {
			ev.BidsReceived = append(ev.BidsReceived, p.trimBid(b))
		}
		return ev, true, ""

	case events.BidTimeout:
		bids, ok := payload.([]*events.Bid)
		if !ok {
			return nil, false, ""
		}
		ev := &BidTimeoutEvent{Base: base}
		for _, b := range bids {
			ev.Bidders = append(ev.Bidders, p.trimBid(b))
		}
		for _, b := range bids {
			if b == nil || b.AuctionID == "" {
				continue
			}
			if d, found := p.auctionTimeouts[b.AuctionID]; found {
				ev.Duration = &d
			}
			break
		}
		return ev, true, ""

	case events.BidRequested:
		br, ok := payload.(*events.BidderRequest)
		if !ok || br == nil {
			return nil, false, ""
		}
		ev := &BidRequestedEvent{
			Base:            base,
			AuctionID:       br.AuctionID,
			BidderCode:      br.BidderCode,
			DoneCbCallCount: br.DoneCbCallCount,
			Start:           br.Start,
			BidderRequestID: br.BidderRequestID,
			AuctionStart:    br.AuctionStart,
		}
		for _, b := range br.Bids {
			ev.Bids = append(ev.Bids, p.trimBid(b))
		}
		return ev, true, ""

	case events.BidResponse:
		b, ok := payload.(*events.Bid)
		if !ok || b == nil {
			return nil, false, ""
		}
		ev := &BidResponseEvent{
			Base:              base,
			BidderCode:        b.BidderCode,
			Width:             b.Width,
			Height:            b.Height,
			AdID:              b.AdID,
			MediaType:         b.MediaType,
			Cpm:               b.Cpm,
			Currency:          b.Currency,
			RequestID:         b.RequestID,
			AdUnitCode:        b.AdUnitCode,
			AuctionID:         b.AuctionID,
			TimeToRespond:     b.TimeToRespond,
			RequestTimestamp:  b.RequestTimestamp,
			ResponseTimestamp: b.ResponseTimestamp,
			NetRevenue:        b.NetRevenue,
			Size:              b.Size,
			AdserverTargeting: b.AdserverTargeting,
			BidFloor:          p.bidFloor(b),
		}
		return ev, true, ""

	case events.BidWon:
		b, ok := payload.(*events.Bid)
		if !ok || b == nil {
			return nil, false, ""
		}
		ev := &BidWonEvent{
			Base:              base,
			AuctionID:         b.AuctionID,
			AdID:              b.AdID,
			AdserverTargeting: b.AdserverTargeting,
			AdUnitCode:        b.AdUnitCode,
			BidderCode:        b.BidderCode,
			Height:            b.Height,
			MediaType:         b.MediaType,
			NetRevenue:        b.NetRevenue,
			Cpm:               b.Cpm,
			RequestTimestamp:  b.RequestTimestamp,
			ResponseTimestamp: b.ResponseTimestamp,
			Size:              b.Size,
			Width:             b.Width,
			Currency:          b.Currency,
			Bidder:            b.Bidder,
			BidFloor:          p.bidFloor(b),
		}
		// Last win per ad unit wins.
		p.winningBids[b.AdUnitCode] = b
		return ev, true, b.AdUnitCode

	case events.BidderDone:
		br, ok := payload.(*events.BidderRequest)
		if !ok || br == nil {
			return nil, false, ""
		}
		ev := &BidderDoneEvent{
			Base:            base,
			AuctionID:       br.AuctionID,
			AuctionStart:    br.AuctionStart,
			BidderCode:      br.BidderCode,
			BidderRequestID: br.BidderRequestID,
			DoneCbCallCount: br.DoneCbCallCount,
			Start:           br.Start,
			TID:             br.TID,
			Src:             br.Src,
		}
		for _, b := range br.Bids {
			ev.Bids = append(ev.Bids, p.trimBid(b))
		}
		return ev, true, ""

	case events.AdRenderFailed:
		rf, ok := payload.(*events.RenderFailure)
		if !ok || rf == nil {
			return nil, false, ""
		}
		return &AdRenderFailedEvent{
			Base:    base,
			Bid:     rf.Bid,
			Message: rf.Message,
			Reason:  rf.Reason,
		}, true, ""

	case events.BidAdjustment, events.SetTargeting, events.RequestBids, events.AddAdUnits:
		return &MarkerEvent{Base: base}, true, ""

	default:
		return nil, false, ""
	}
}

// ProjectView synthesizes an adView event from the most recent winning bid
// of the ad unit. It returns false when no win has been recorded, which
// can happen if the session was reset between the win and the view.
func (p *Projector) ProjectView(adUnitCode string) (Event, bool) {
	p.mux.Lock()
	defer p.mux.Unlock()

	b := p.winningBids[adUnitCode]
	if b == nil {
		glog.Warningf("[asteriobid] no winning bid recorded for ad unit %q, dropping view", adUnitCode)
		return nil, false
	}
	return &AdViewEvent{
		Base:              Base{Timestamp: p.now(), EventType: events.AdView},
		AuctionID:         b.AuctionID,
		AdID:              b.AdID,
		AdserverTargeting: b.AdserverTargeting,
		AdUnitCode:        b.AdUnitCode,
		BidderCode:        b.BidderCode,
		Height:            b.Height,
		MediaType:         b.MediaType,
		Size:              b.Size,
		Width:             b.Width,
		Currency:          b.Currency,
		Bidder:            b.Bidder,
		BidFloor:          p.bidFloor(b),
	}, true
}

// Category returns the captured content taxonomy, nil while none of its
// fields is populated.
func (p *Projector) Category() *Category {
	p.mux.RLock()
	defer p.mux.RUnlock()
	if p.category.Empty() {
		return nil
	}
	c := p.category
	return &c
}

// PrebidTimeout reports the first timeout value observed on any payload.
func (p *Projector) PrebidTimeout() *int64 {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.prebidTimeout
}

// WinningBid returns the raw record of the last win for the ad unit.
func (p *Projector) WinningBid(adUnitCode string) *events.Bid {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.winningBids[adUnitCode]
}

func (p *Projector) now() int64 {
	return p.clock.Now().UnixMilli()
}

func (p *Projector) capturePrebidTimeout(payload any) {
	if p.prebidTimeout != nil {
		return
	}
	var t int64
	switch v := payload.(type) {
	case *events.AuctionDetails:
		if v != nil {
			t = v.Timeout
		}
	case *events.BidderRequest:
		if v != nil {
			t = v.Timeout
		}
	}
	if t != 0 {
		p.prebidTimeout = &t
	}
}

func (p *Projector) floorSnapshot() map[string]float64 {
	snap := make(map[string]float64, len(p.floors))
	for code, floor := range p.floors {
		snap[code] = floor
	}
	return snap
}

func trimAdUnit(a *events.AdUnit) *TrimmedAdUnit {
	if a == nil {
		return nil
	}
	return &TrimmedAdUnit{Code: a.Code, Sizes: a.Sizes}
}

func (p *Projector) trimBid(b *events.Bid) *TrimmedBid {
	if b == nil {
		return nil
	}
	t := &TrimmedBid{
		AuctionID:            b.AuctionID,
		Bidder:               b.Bidder,
		BidderRequestID:      b.BidderRequestID,
		BidID:                b.BidID,
		Crumbs:               b.Crumbs,
		Cpm:                  b.Cpm,
		Currency:             b.Currency,
		MediaTypes:           b.MediaTypes,
		Sizes:                b.Sizes,
		TransactionID:        b.TransactionID,
		AdUnitCode:           b.AdUnitCode,
		BidRequestsCount:     b.BidRequestsCount,
		ServerResponseTimeMs: b.ServerResponseTimeMs,
		BidFloor:             p.bidFloor(b),
	}
	p.seedFloor(b.AdUnitCode, t.BidFloor)
	return t
}

// trimBidderRequest also captures the content category. Unlike the floor
// cache this is last-write-wins: every bidder request overwrites it, since
// all requests of one page carry the same site-level taxonomy.
func (p *Projector) trimBidderRequest(br *events.BidderRequest) *TrimmedBidderRequest {
	if br == nil {
		return nil
	}
	var c Category
	if br.Ortb2 != nil && br.Ortb2.Site != nil {
		c.Cat = br.Ortb2.Site.Cat
		c.SectionCat = br.Ortb2.Site.SectionCat
		c.PageCat = br.Ortb2.Site.PageCat
	}
	p.category = c

	t := &TrimmedBidderRequest{
		AuctionID:       br.AuctionID,
		AuctionStart:    br.AuctionStart,
		BidderRequestID: br.BidderRequestID,
		BidderCode:      br.BidderCode,
	}
	for _, b := range br.Bids {
		t.Bids = append(t.Bids, p.trimBid(b))
	}
	return t
}
