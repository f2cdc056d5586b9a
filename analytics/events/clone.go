package events

import (
	"encoding/json"
)

// CopyPayload returns the payload the projector should work on. Payloads
// are deep-copied so later host mutation cannot bleed into queued events,
// except when the payload carries a live floor callback: those are used by
// reference, since a copy would sever the callable.
func CopyPayload(payload any) any {
	switch p := payload.(type) {
	case *AuctionDetails:
		if p == nil || auctionHasLiveCallable(p) {
			return p
		}
		return deepCopy(p)
	case *BidderRequest:
		if p == nil || bidsHaveLiveCallable(p.Bids) {
			return p
		}
		return deepCopy(p)
	case *Bid:
		if p == nil || p.GetFloor != nil {
			return p
		}
		return deepCopy(p)
	case []*Bid:
		if bidsHaveLiveCallable(p) {
			return p
		}
		out := make([]*Bid, len(p))
		for i, b := range p {
			if b != nil {
				out[i] = deepCopy(b)
			}
		}
		return out
	case *RenderFailure:
		if p == nil || (p.Bid != nil && p.Bid.GetFloor != nil) {
			return p
		}
		return deepCopy(p)
	default:
		return payload
	}
}

func auctionHasLiveCallable(a *AuctionDetails) bool {
	if bidsHaveLiveCallable(a.BidsReceived) {
		return true
	}
	for _, br := range a.BidderRequests {
		if br != nil && bidsHaveLiveCallable(br.Bids) {
			return true
		}
	}
	return false
}

func bidsHaveLiveCallable(bids []*Bid) bool {
	for _, b := range bids {
		if b != nil && b.GetFloor != nil {
			return true
		}
	}
	return false
}

// deepCopy clones through a JSON round trip. On any failure the original
// is returned; analytics must degrade rather than fail.
func deepCopy[T any](v *T) *T {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		return v
	}
	return out
}
