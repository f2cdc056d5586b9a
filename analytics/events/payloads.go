package events

import (
	"github.com/prebid/openrtb/v20/openrtb2"
)

// FloorQuery asks a bidder's floor provider for the minimum acceptable
// price of one media type / size combination.
type FloorQuery struct {
	Currency  string
	MediaType string
	Size      []int64
}

// Floor is a floor provider's answer to a FloorQuery.
type Floor struct {
	Floor    float64
	Currency string
}

// FloorFunc is the live floor-lookup capability a bid may carry. It is a
// callable owned by the host and must be used by reference, never copied.
type FloorFunc func(FloorQuery) (Floor, bool)

// FloorParams is the static floor configuration a bidder may declare.
type FloorParams struct {
	BidFloor *float64 `json:"bidFloor,omitempty"`
}

type BannerMediaType struct {
	Sizes [][]int64 `json:"sizes,omitempty"`
}

type VideoMediaType struct {
	PlayerSize [][]int64 `json:"playerSize,omitempty"`
	Context    string    `json:"context,omitempty"`
}

// MediaTypes declares the formats a bid request or response spans. Format
// presence is signalled by a non-nil sub-record.
type MediaTypes struct {
	Banner *BannerMediaType `json:"banner,omitempty"`
	Video  *VideoMediaType  `json:"video,omitempty"`
}

// Bid is the raw record behind bidRequested bids, bidResponse, bidWon,
// bidderDone bids and bidTimeout entries. Fields irrelevant to a given
// event kind are simply left at their zero value by the host.
type Bid struct {
	AuctionID            string            `json:"auctionId,omitempty"`
	Bidder               string            `json:"bidder,omitempty"`
	BidderCode           string            `json:"bidderCode,omitempty"`
	BidderRequestID      string            `json:"bidderRequestId,omitempty"`
	BidID                string            `json:"bidId,omitempty"`
	RequestID            string            `json:"requestId,omitempty"`
	AdID                 string            `json:"adId,omitempty"`
	AdUnitCode           string            `json:"adUnitCode,omitempty"`
	TransactionID        string            `json:"transactionId,omitempty"`
	Crumbs               map[string]string `json:"crumbs,omitempty"`
	Cpm                  float64           `json:"cpm,omitempty"`
	Currency             string            `json:"currency,omitempty"`
	MediaType            string            `json:"mediaType,omitempty"`
	MediaTypes           *MediaTypes       `json:"mediaTypes,omitempty"`
	Sizes                [][]int64         `json:"sizes,omitempty"`
	Size                 string            `json:"size,omitempty"`
	Width                int64             `json:"width,omitempty"`
	Height               int64             `json:"height,omitempty"`
	NetRevenue           *bool             `json:"netRevenue,omitempty"`
	TimeToRespond        int64             `json:"timeToRespond,omitempty"`
	RequestTimestamp     int64             `json:"requestTimestamp,omitempty"`
	ResponseTimestamp    int64             `json:"responseTimestamp,omitempty"`
	BidRequestsCount     int               `json:"bidRequestsCount,omitempty"`
	ServerResponseTimeMs int64             `json:"serverResponseTimeMs,omitempty"`
	AdserverTargeting    map[string]string `json:"adserverTargeting,omitempty"`
	Params               []FloorParams     `json:"params,omitempty"`

	// GetFloor is live host state, referenced rather than serialized.
	GetFloor FloorFunc `json:"-"`
}

// Ortb2 carries the OpenRTB fragment bidders attach to their requests.
// Only the site object is of interest to analytics.
type Ortb2 struct {
	Site *openrtb2.Site `json:"site,omitempty"`
}

// BidderRequest is the raw record behind bidRequested and bidderDone
// events and the bidderRequests of an auctionInit.
type BidderRequest struct {
	AuctionID       string `json:"auctionId,omitempty"`
	AuctionStart    int64  `json:"auctionStart,omitempty"`
	BidderRequestID string `json:"bidderRequestId,omitempty"`
	BidderCode      string `json:"bidderCode,omitempty"`
	DoneCbCallCount int    `json:"doneCbCallCount,omitempty"`
	Start           int64  `json:"start,omitempty"`
	Timeout         int64  `json:"timeout,omitempty"`
	TID             string `json:"tid,omitempty"`
	Src             string `json:"src,omitempty"`
	Bids            []*Bid `json:"bids,omitempty"`
	Ortb2           *Ortb2 `json:"ortb2,omitempty"`
}

// AdUnit is a slot eligible to receive bids.
type AdUnit struct {
	Code          string      `json:"code,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
	Sizes         [][]int64   `json:"sizes,omitempty"`
	MediaTypes    *MediaTypes `json:"mediaTypes,omitempty"`
}

// AuctionDetails is the raw record behind auctionInit and auctionEnd.
type AuctionDetails struct {
	AuctionID      string           `json:"auctionId,omitempty"`
	Timestamp      int64            `json:"timestamp,omitempty"`
	Timeout        int64            `json:"timeout,omitempty"`
	Start          int64            `json:"start,omitempty"`
	End            int64            `json:"end,omitempty"`
	AdUnits        []*AdUnit        `json:"adUnits,omitempty"`
	AdUnitCodes    []string         `json:"adUnitCodes,omitempty"`
	BidderRequests []*BidderRequest `json:"bidderRequests,omitempty"`
	BidsReceived   []*Bid           `json:"bidsReceived,omitempty"`
}

// RenderFailure is the raw record behind adRenderFailed.
type RenderFailure struct {
	Bid     *Bid   `json:"bid,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
