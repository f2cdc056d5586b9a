package events

// Kind tags a lifecycle event emitted by the host auction system.
type Kind string

const (
	AuctionInit    Kind = "auctionInit"
	AuctionEnd     Kind = "auctionEnd"
	BidAdjustment  Kind = "bidAdjustment"
	BidTimeout     Kind = "bidTimeout"
	BidRequested   Kind = "bidRequested"
	BidResponse    Kind = "bidResponse"
	BidWon         Kind = "bidWon"
	BidderDone     Kind = "bidderDone"
	SetTargeting   Kind = "setTargeting"
	RequestBids    Kind = "requestBids"
	AddAdUnits     Kind = "addAdUnits"
	AdRenderFailed Kind = "adRenderFailed"

	// AdView is synthesized by the viewability watcher, never delivered by the host.
	AdView Kind = "adView"
)
