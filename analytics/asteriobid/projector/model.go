package projector

import (
	"github.com/asteriobid/prebid-analytics/analytics/events"
)

// Base carries the two fields every queued event shares.
type Base struct {
	Timestamp int64       `json:"timestamp"`
	EventType events.Kind `json:"eventType"`
}

func (b *Base) EventBase() *Base { return b }

// Event is a projected, serialization-safe record ready for the queue.
type Event interface {
	EventBase() *Base
}

// TrimmedAdUnit keeps only the slot identity out of a raw ad unit.
type TrimmedAdUnit struct {
	Code  string    `json:"code,omitempty"`
	Sizes [][]int64 `json:"sizes,omitempty"`
}

// TrimmedBid keeps the identity and pricing fields of a raw bid.
type TrimmedBid struct {
	AuctionID            string             `json:"auctionId,omitempty"`
	Bidder               string             `json:"bidder,omitempty"`
	BidderRequestID      string             `json:"bidderRequestId,omitempty"`
	BidID                string             `json:"bidId,omitempty"`
	Crumbs               map[string]string  `json:"crumbs,omitempty"`
	Cpm                  float64            `json:"cpm,omitempty"`
	Currency             string             `json:"currency,omitempty"`
	MediaTypes           *events.MediaTypes `json:"mediaTypes,omitempty"`
	Sizes                [][]int64          `json:"sizes,omitempty"`
	TransactionID        string             `json:"transactionId,omitempty"`
	AdUnitCode           string             `json:"adUnitCode,omitempty"`
	BidRequestsCount     int                `json:"bidRequestsCount,omitempty"`
	ServerResponseTimeMs int64              `json:"serverResponseTimeMs,omitempty"`
	BidFloor             *float64           `json:"bidFloor,omitempty"`
}

type TrimmedBidderRequest struct {
	AuctionID       string        `json:"auctionId,omitempty"`
	AuctionStart    int64         `json:"auctionStart,omitempty"`
	BidderRequestID string        `json:"bidderRequestId,omitempty"`
	BidderCode      string        `json:"bidderCode,omitempty"`
	Bids            []*TrimmedBid `json:"bids,omitempty"`
}

// Category is the site-level content taxonomy captured from bidder
// requests, delivered once per batch.
type Category struct {
	Cat        []string `json:"cat,omitempty"`
	SectionCat []string `json:"sectioncat,omitempty"`
	PageCat    []string `json:"pagecat,omitempty"`
}

func (c Category) Empty() bool {
	return len(c.Cat) == 0 && len(c.SectionCat) == 0 && len(c.PageCat) == 0
}

type AuctionInitEvent struct {
	Base
	AuctionID      string                  `json:"auctionId,omitempty"`
	AdUnits        []*TrimmedAdUnit        `json:"adUnits,omitempty"`
	BidderRequests []*TrimmedBidderRequest `json:"bidderRequests,omitempty"`
}

type AuctionEndEvent struct {
	Base
	AuctionID    string        `json:"auctionId,omitempty"`
	Start        int64         `json:"start,omitempty"`
	End          int64         `json:"end,omitempty"`
	AdUnitCodes  []string      `json:"adUnitCodes,omitempty"`
	BidsReceived []*TrimmedBid `json:"bidsReceived,omitempty"`

	// Snapshot of the floor cache at projection time, empty map included.
	AdUnitCodeToBidFloor map[string]float64 `json:"adUnitCodeToBidFloor"`
}

type BidTimeoutEvent struct {
	Base
	Bidders  []*TrimmedBid `json:"bidders,omitempty"`
	Duration *int64        `json:"duration,omitempty"`
}

type BidRequestedEvent struct {
	Base
	AuctionID       string        `json:"auctionId,omitempty"`
	BidderCode      string        `json:"bidderCode,omitempty"`
	DoneCbCallCount int           `json:"doneCbCallCount,omitempty"`
	Start           int64         `json:"start,omitempty"`
	BidderRequestID string        `json:"bidderRequestId,omitempty"`
	Bids            []*TrimmedBid `json:"bids,omitempty"`
	AuctionStart    int64         `json:"auctionStart,omitempty"`
}

type BidResponseEvent struct {
	Base
	BidderCode        string            `json:"bidderCode,omitempty"`
	Width             int64             `json:"width,omitempty"`
	Height            int64             `json:"height,omitempty"`
	AdID              string            `json:"adId,omitempty"`
	MediaType         string            `json:"mediaType,omitempty"`
	Cpm               float64           `json:"cpm,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	RequestID         string            `json:"requestId,omitempty"`
	AdUnitCode        string            `json:"adUnitCode,omitempty"`
	AuctionID         string            `json:"auctionId,omitempty"`
	TimeToRespond     int64             `json:"timeToRespond,omitempty"`
	RequestTimestamp  int64             `json:"requestTimestamp,omitempty"`
	ResponseTimestamp int64             `json:"responseTimestamp,omitempty"`
	NetRevenue        *bool             `json:"netRevenue,omitempty"`
	Size              string            `json:"size,omitempty"`
	AdserverTargeting map[string]string `json:"adserverTargeting,omitempty"`
	BidFloor          *float64          `json:"bidFloor,omitempty"`
}

type BidWonEvent struct {
	Base
	AuctionID         string            `json:"auctionId,omitempty"`
	AdID              string            `json:"adId,omitempty"`
	AdserverTargeting map[string]string `json:"adserverTargeting,omitempty"`
	AdUnitCode        string            `json:"adUnitCode,omitempty"`
	BidderCode        string            `json:"bidderCode,omitempty"`
	Height            int64             `json:"height,omitempty"`
	MediaType         string            `json:"mediaType,omitempty"`
	NetRevenue        *bool             `json:"netRevenue,omitempty"`
	Cpm               float64           `json:"cpm,omitempty"`
	RequestTimestamp  int64             `json:"requestTimestamp,omitempty"`
	ResponseTimestamp int64             `json:"responseTimestamp,omitempty"`
	Size              string            `json:"size,omitempty"`
	Width             int64             `json:"width,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	Bidder            string            `json:"bidder,omitempty"`
	BidFloor          *float64          `json:"bidFloor,omitempty"`
}

type BidderDoneEvent struct {
	Base
	AuctionID       string        `json:"auctionId,omitempty"`
	AuctionStart    int64         `json:"auctionStart,omitempty"`
	BidderCode      string        `json:"bidderCode,omitempty"`
	BidderRequestID string        `json:"bidderRequestId,omitempty"`
	Bids            []*TrimmedBid `json:"bids,omitempty"`
	DoneCbCallCount int           `json:"doneCbCallCount,omitempty"`
	Start           int64         `json:"start,omitempty"`
	TID             string        `json:"tid,omitempty"`
	Src             string        `json:"src,omitempty"`
}

type AdRenderFailedEvent struct {
	Base
	Bid     *events.Bid `json:"bid,omitempty"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// MarkerEvent is the bare shell recorded for kinds that are tracked but
// carry no payload fields (bidAdjustment, setTargeting, requestBids,
// addAdUnits).
type MarkerEvent struct {
	Base
}

// AdViewEvent is synthesized from the last winning bid of an ad unit once
// its dwell time elapses.
type AdViewEvent struct {
	Base
	AuctionID         string            `json:"auctionId,omitempty"`
	AdID              string            `json:"adId,omitempty"`
	AdserverTargeting map[string]string `json:"adserverTargeting,omitempty"`
	AdUnitCode        string            `json:"adUnitCode,omitempty"`
	BidderCode        string            `json:"bidderCode,omitempty"`
	Height            int64             `json:"height,omitempty"`
	MediaType         string            `json:"mediaType,omitempty"`
	Size              string            `json:"size,omitempty"`
	Width             int64             `json:"width,omitempty"`
	Currency          string            `json:"currency,omitempty"`
	Bidder            string            `json:"bidder,omitempty"`
	BidFloor          *float64          `json:"bidFloor,omitempty"`
}
