package asteriobid

import (
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/enrichment"
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/projector"
)

// Envelope is the batch payload delivered to the collector. The wire body
// is the protocol version, a colon, then this structure as JSON.
type Envelope struct {
	PageViewID    string              `json:"pageViewId"`
	Ver           int                 `json:"ver"`
	BundleID      string              `json:"bundleId,omitempty"`
	Events        []projector.Event   `json:"events"`
	UTMTags       map[string]any      `json:"utmTags"`
	PageInfo      enrichment.PageInfo `json:"pageInfo"`
	Sampling      int                 `json:"sampling"`
	PrebidTimeout *int64              `json:"prebidTimeout,omitempty"`
	Category      *projector.Category `json:"category,omitempty"`

	// Pass-through options, present only when configured by the host.
	Version      *string           `json:"version,omitempty"`
	TCFCompliant *bool             `json:"tcf_compliant,omitempty"`
	AdUnitDict   map[string]string `json:"adUnitDict,omitempty"`
	CustomParam  map[string]any    `json:"customParam,omitempty"`
}
