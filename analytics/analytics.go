package analytics

import (
	"github.com/asteriobid/prebid-analytics/analytics/events"
)

// Module must be implemented by analytics adapters fed from the host
// auction's event stream. Payloads are delivered as opaque records; an
// adapter ignores kinds and shapes it does not recognize. Do not hold on
// to a payload after Track returns unless it was copied: the host may
// mutate it.
type Module interface {
	// Track receives one lifecycle event. It must never panic or block
	// the host auction.
	Track(kind events.Kind, payload any)

	// Flush forces delivery of any batched data.
	Flush()

	// Shutdown flushes and releases timers. The module must not be used
	// afterwards.
	Shutdown()
}
