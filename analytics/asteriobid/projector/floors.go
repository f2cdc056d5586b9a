package projector

import (
	"math"
	"strings"

	"github.com/asteriobid/prebid-analytics/analytics/events"
)

const floorCurrency = "USD"

// bidFloor resolves the floor price of a bid. When the bid carries a live
// floor callback, the minimum USD floor across all of its format/size
// combinations is taken and seeded into the floor cache. Without the
// callback the cached value for the ad unit applies, and as a final
// fallback the bidder's static floor parameter. Unresolvable floors stay
// nil, never an error. Callers hold the projector lock.
func (p *Projector) bidFloor(bid *events.Bid) *float64 {
	if bid == nil {
		return nil
	}

	var minFloor *float64
	if bid.GetFloor != nil {
		sizes := bid.Sizes
		if len(sizes) == 0 {
			sizes = [][]int64{{bid.Height, bid.Width}}
		}
		for _, format := range formatTypes(bid) {
			for _, size := range sizes {
				f, ok := bid.GetFloor(events.FloorQuery{
					Currency:  floorCurrency,
					MediaType: format,
					Size:      size,
				})
				if !ok || f.Currency != floorCurrency || math.IsNaN(f.Floor) {
					continue
				}
				if minFloor == nil || f.Floor < *minFloor {
					v := f.Floor
					minFloor = &v
				}
			}
		}
		p.seedFloor(bid.AdUnitCode, minFloor)
	} else if cached, found := p.floors[bid.AdUnitCode]; found {
		v := cached
		minFloor = &v
	}

	if minFloor != nil {
		return minFloor
	}
	if len(bid.Params) > 0 && bid.Params[0].BidFloor != nil {
		return bid.Params[0].BidFloor
	}
	return nil
}

// seedFloor records the first floor discovered for an ad unit. Later
// values never overwrite it, even when they differ: the cache captures the
// floor at first discovery.
func (p *Projector) seedFloor(adUnitCode string, floor *float64) {
	if floor == nil || adUnitCode == "" {
		return
	}
	if _, found := p.floors[adUnitCode]; !found {
		p.floors[adUnitCode] = *floor
	}
}

func formatTypes(bid *events.Bid) []string {
	var formats []string
	if bid.MediaTypes != nil {
		if bid.MediaTypes.Banner != nil {
			formats = append(formats, "banner")
		}
		if bid.MediaTypes.Video != nil {
			formats = append(formats, "video")
		}
	}
	if bid.MediaType != "" {
		formats = append(formats, strings.ToLower(bid.MediaType))
	}
	return formats
}
