package projector

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"

	"github.com/asteriobid/prebid-analytics/analytics/events"
)

var testTime = time.UnixMilli(1700000000000)

func ortb2Site(cat []string) *events.Ortb2 {
	return &events.Ortb2{Site: &openrtb2.Site{Cat: cat}}
}

func newTestProjector(onBidWon func(string)) (*Projector, *clock.Mock) {
	clk := clock.NewMock()
	clk.Set(testTime)
	return New(clk, onBidWon), clk
}

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	var m map[string]any
	assert.NoError(t, json.Unmarshal(raw, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestProjectAuctionInit(t *testing.T) {
	p, _ := newTestProjector(nil)

	ev, ok := p.Project(events.AuctionInit, &events.AuctionDetails{
		AuctionID: "a1",
		Timestamp: 1700000000123,
		Timeout:   3000,
		AdUnits: []*events.AdUnit{
			{Code: "div1", Sizes: [][]int64{{300, 250}}, TransactionID: "dropped"},
		},
		BidderRequests: []*events.BidderRequest{
			{
				AuctionID:       "a1",
				AuctionStart:    1700000000100,
				BidderRequestID: "br1",
				BidderCode:      "bidderA",
				Bids:            []*events.Bid{{BidID: "b1", AdUnitCode: "div1"}},
			},
		},
	})
	assert.True(t, ok)

	init := ev.(*AuctionInitEvent)
	assert.Equal(t, int64(1700000000123), init.Timestamp)
	assert.Equal(t, events.AuctionInit, init.EventType)
	assert.Equal(t, "a1", init.AuctionID)
	assert.Equal(t, []*TrimmedAdUnit{{Code: "div1", Sizes: [][]int64{{300, 250}}}}, init.AdUnits)
	assert.Len(t, init.BidderRequests, 1)
	assert.Equal(t, "bidderA", init.BidderRequests[0].BidderCode)
	assert.Len(t, init.BidderRequests[0].Bids, 1)

	assert.Equal(t,
		[]string{"adUnits", "auctionId", "bidderRequests", "eventType", "timestamp"},
		jsonKeys(t, init))
}

func TestProjectAuctionEndOverridesClock(t *testing.T) {
	p, clk := newTestProjector(nil)

	_, ok := p.Project(events.AuctionInit, &events.AuctionDetails{AuctionID: "a1"})
	assert.True(t, ok)

	clk.Add(250 * time.Millisecond)

	// start and end supplied by the host are ignored: the adapter's own
	// clock is authoritative.
	ev, ok := p.Project(events.AuctionEnd, &events.AuctionDetails{
		AuctionID:   "a1",
		Start:       1,
		End:         2,
		AdUnitCodes: []string{"div1"},
	})
	assert.True(t, ok)

	end := ev.(*AuctionEndEvent)
	assert.Equal(t, testTime.UnixMilli(), end.Start)
	assert.Equal(t, testTime.Add(250*time.Millisecond).UnixMilli(), end.End)
	assert.Equal(t, []string{"div1"}, end.AdUnitCodes)
	assert.NotNil(t, end.AdUnitCodeToBidFloor)
	assert.Empty(t, end.AdUnitCodeToBidFloor)
}

func TestProjectAuctionEndUnknownAuction(t *testing.T) {
	p, _ := newTestProjector(nil)

	ev, ok := p.Project(events.AuctionEnd, &events.AuctionDetails{AuctionID: "ghost"})
	assert.True(t, ok)
	assert.Zero(t, ev.(*AuctionEndEvent).Start)
}

func TestFloorCacheFirstWriteWins(t *testing.T) {
	p, _ := newTestProjector(nil)

	floorOf := func(floor float64) events.FloorFunc {
		return func(events.FloorQuery) (events.Floor, bool) {
			return events.Floor{Floor: floor, Currency: "USD"}, true
		}
	}
	bid := func(floor float64) *events.Bid {
		return &events.Bid{
			AdUnitCode: "div1",
			MediaTypes: &events.MediaTypes{Banner: &events.BannerMediaType{}},
			Sizes:      [][]int64{{300, 250}},
			GetFloor:   floorOf(floor),
		}
	}

	_, ok := p.Project(events.BidResponse, bid(2.50))
	assert.True(t, ok)
	_, ok = p.Project(events.BidResponse, bid(1.00))
	assert.True(t, ok)

	ev, ok := p.Project(events.AuctionEnd, &events.AuctionDetails{AuctionID: "a1"})
	assert.True(t, ok)
	assert.Equal(t, map[string]float64{"div1": 2.50}, ev.(*AuctionEndEvent).AdUnitCodeToBidFloor)
}

func TestWinningBidLastWriteWins(t *testing.T) {
	var armed []string
	p, _ := newTestProjector(func(code string) { armed = append(armed, code) })

	first := &events.Bid{AdUnitCode: "div1", AdID: "ad-1"}
	second := &events.Bid{AdUnitCode: "div1", AdID: "ad-2"}

	_, ok := p.Project(events.BidWon, first)
	assert.True(t, ok)
	_, ok = p.Project(events.BidWon, second)
	assert.True(t, ok)

	assert.Same(t, second, p.WinningBid("div1"))
	assert.Equal(t, []string{"div1", "div1"}, armed)
}

func TestProjectBidTimeout(t *testing.T) {
	p, _ := newTestProjector(nil)

	_, ok := p.Project(events.AuctionInit, &events.AuctionDetails{AuctionID: "a1", Timeout: 1500})
	assert.True(t, ok)

	ev, ok := p.Project(events.BidTimeout, []*events.Bid{
		{AuctionID: "a1", Bidder: "slowpoke", AdUnitCode: "div1"},
	})
	assert.True(t, ok)

	timeout := ev.(*BidTimeoutEvent)
	assert.Len(t, timeout.Bidders, 1)
	assert.Equal(t, "slowpoke", timeout.Bidders[0].Bidder)
	if assert.NotNil(t, timeout.Duration) {
		assert.Equal(t, int64(1500), *timeout.Duration)
	}
}

func TestProjectBidTimeoutUnknownAuction(t *testing.T) {
	p, _ := newTestProjector(nil)

	ev, ok := p.Project(events.BidTimeout, []*events.Bid{{AuctionID: "ghost"}})
	assert.True(t, ok)
	assert.Nil(t, ev.(*BidTimeoutEvent).Duration)
}

func TestProjectBidResponseFields(t *testing.T) {
	p, _ := newTestProjector(nil)

	netRevenue := true
	ev, ok := p.Project(events.BidResponse, &events.Bid{
		AuctionID:         "a1",
		BidderCode:        "bidderA",
		AdID:              "ad1",
		AdUnitCode:        "div1",
		RequestID:         "r1",
		Width:             300,
		Height:            250,
		MediaType:         "banner",
		Cpm:               1.25,
		Currency:          "USD",
		TimeToRespond:     120,
		RequestTimestamp:  100,
		ResponseTimestamp: 220,
		NetRevenue:        &netRevenue,
		Size:              "300x250",
		AdserverTargeting: map[string]string{"hb_pb": "1.20"},
	})
	assert.True(t, ok)

	resp := ev.(*BidResponseEvent)
	assert.Equal(t, "bidderA", resp.BidderCode)
	assert.Equal(t, int64(300), resp.Width)
	assert.Equal(t, 1.25, resp.Cpm)
	assert.Nil(t, resp.BidFloor)

	assert.Equal(t,
		[]string{
			"adId", "adUnitCode", "adserverTargeting", "auctionId", "bidderCode",
			"cpm", "currency", "eventType", "height", "mediaType", "netRevenue",
			"requestId", "requestTimestamp", "responseTimestamp", "size",
			"timeToRespond", "timestamp", "width",
		},
		jsonKeys(t, resp))
}

func TestProjectBidderDone(t *testing.T) {
	p, _ := newTestProjector(nil)

	ev, ok := p.Project(events.BidderDone, &events.BidderRequest{
		AuctionID:       "a1",
		AuctionStart:    10,
		BidderCode:      "bidderA",
		BidderRequestID: "br1",
		DoneCbCallCount: 1,
		Start:           12,
		TID:             "t1",
		Src:             "client",
		Bids:            []*events.Bid{{BidID: "b1"}},
	})
	assert.True(t, ok)

	done := ev.(*BidderDoneEvent)
	assert.Equal(t, "t1", done.TID)
	assert.Equal(t, "client", done.Src)
	assert.Len(t, done.Bids, 1)
}

func TestProjectMarkerKinds(t *testing.T) {
	p, _ := newTestProjector(nil)

	for _, kind := range []events.Kind{events.BidAdjustment, events.SetTargeting, events.RequestBids, events.AddAdUnits} {
		ev, ok := p.Project(kind, struct{}{})
		assert.True(t, ok, string(kind))
		assert.Equal(t, kind, ev.EventBase().EventType)
		assert.Equal(t, []string{"eventType", "timestamp"}, jsonKeys(t, ev), string(kind))
	}
}

func TestProjectUnrecognizedKind(t *testing.T) {
	p, _ := newTestProjector(nil)

	_, ok := p.Project(events.Kind("tcf2Enforcement"), struct{}{})
	assert.False(t, ok)
}

func TestProjectWrongPayloadShape(t *testing.T) {
	p, _ := newTestProjector(nil)

	_, ok := p.Project(events.AuctionInit, "not an auction")
	assert.False(t, ok)
	_, ok = p.Project(events.BidWon, (*events.Bid)(nil))
	assert.False(t, ok)
}

func TestCategoryLastWriteWins(t *testing.T) {
	p, _ := newTestProjector(nil)

	assert.Nil(t, p.Category())

	project := func(cat []string) {
		_, ok := p.Project(events.AuctionInit, &events.AuctionDetails{
			AuctionID: "a1",
			BidderRequests: []*events.BidderRequest{
				{BidderCode: "bidderA", Ortb2: ortb2Site(cat)},
			},
		})
		assert.True(t, ok)
	}

	project([]string{"IAB1"})
	if c := p.Category(); assert.NotNil(t, c) {
		assert.Equal(t, []string{"IAB1"}, c.Cat)
	}

	// Unlike the floor cache, the category is overwritten by every
	// bidder request.
	project([]string{"IAB2"})
	if c := p.Category(); assert.NotNil(t, c) {
		assert.Equal(t, []string{"IAB2"}, c.Cat)
	}
}

func TestPrebidTimeoutFirstObserved(t *testing.T) {
	p, _ := newTestProjector(nil)

	assert.Nil(t, p.PrebidTimeout())

	p.Project(events.AuctionInit, &events.AuctionDetails{AuctionID: "a1", Timeout: 3000})
	if to := p.PrebidTimeout(); assert.NotNil(t, to) {
		assert.Equal(t, int64(3000), *to)
	}

	p.Project(events.BidRequested, &events.BidderRequest{AuctionID: "a2", Timeout: 9000})
	assert.Equal(t, int64(3000), *p.PrebidTimeout())
}

func TestProjectView(t *testing.T) {
	p, _ := newTestProjector(nil)

	_, ok := p.ProjectView("div1")
	assert.False(t, ok)

	p.Project(events.BidWon, &events.Bid{
		AuctionID:  "a1",
		AdUnitCode: "div1",
		AdID:       "ad1",
		Bidder:     "bidderA",
		Width:      300,
		Height:     250,
		Currency:   "USD",
	})

	ev, ok := p.ProjectView("div1")
	assert.True(t, ok)

	view := ev.(*AdViewEvent)
	assert.Equal(t, events.AdView, view.EventType)
	assert.Equal(t, "div1", view.AdUnitCode)
	assert.Equal(t, "ad1", view.AdID)
	assert.Equal(t, "bidderA", view.Bidder)
}
