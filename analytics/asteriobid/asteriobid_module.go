package asteriobid

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/rcrowley/go-metrics"

	"github.com/asteriobid/prebid-analytics/analytics"
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/enrichment"
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/eventchannel"
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/projector"
	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/view"
	"github.com/asteriobid/prebid-analytics/analytics/events"
	"github.com/asteriobid/prebid-analytics/util/randomutil"
)

const envelopeVersion = 1

// Deps are the external collaborators. Zero fields get working defaults;
// tests and hosts override what they need.
type Deps struct {
	HTTPClient      *http.Client
	Clock           clock.Clock
	Rand            randomutil.RandomGenerator
	Storage         enrichment.Storage
	Referer         enrichment.RefererResolver
	Observer        view.Observer
	MetricsRegistry metrics.Registry
}

// Module is one analytics session: all cross-event state lives here and
// dies with it. Re-enabling means constructing a new Module.
type Module struct {
	cfg       resolvedConfig
	enabled   bool
	projector *projector.Projector
	channel   *eventchannel.EventChannel
	collector *enrichment.Collector
	watcher   *view.Watcher
	metrics   *moduleMetrics
	closeOnce sync.Once
}

var _ analytics.Module = (*Module)(nil)

// NewModule builds and enables the AsterioBid analytics adapter. The
// sampling draw happens once, here: a session that loses the draw stays
// permanently disabled, starts no timers and delivers nothing.
func NewModule(cfg Config, deps Deps) (*Module, error) {
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Rand == nil {
		deps.Rand = randomutil.RandomNumberGenerator{}
	}
	if deps.Storage == nil {
		deps.Storage = enrichment.NewLocalCache(int(resolved.storageBytes))
	}
	if deps.Referer == nil {
		deps.Referer = enrichment.StaticReferer{
			PageURL:     resolved.PageURL,
			ReferrerURL: resolved.ReferrerURL,
		}
	}
	if deps.Observer == nil {
		deps.Observer = view.NopObserver{}
	}

	m := &Module{
		cfg:     resolved,
		metrics: newModuleMetrics(deps.MetricsRegistry),
	}

	if deps.Rand.GenerateIntn(int64(resolved.Sampling)) != 0 {
		glog.Infof("[asteriobid] analytics isn't enabled because of sampling")
		return m, nil
	}
	m.enabled = true

	m.collector = enrichment.NewCollector(deps.Storage, deps.Referer)
	m.projector = projector.New(deps.Clock, m.armView)
	m.watcher = view.NewWatcher(deps.Observer, deps.Clock, resolved.dwell, m.handleView)

	send := m.instrument(eventchannel.NewHTTPSender(deps.HTTPClient, resolved.endpoint, envelopeVersion))
	m.channel = eventchannel.NewEventChannel(m.pack, send, deps.Clock, resolved.flushInterval, resolved.MaxEventCount)

	glog.Infof("[asteriobid] analytics configured and ready, pageViewId=%s", resolved.PageViewID)
	return m, nil
}

// Track receives one lifecycle event from the host. It never lets a
// failure escape: this is best-effort telemetry and must not perturb the
// auction.
func (m *Module) Track(kind events.Kind, payload any) {
	if m == nil || !m.enabled {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[asteriobid] recovered while handling %s event: %v", kind, r)
		}
	}()

	payload = events.CopyPayload(payload)
	ev, ok := m.projector.Project(kind, payload)
	if !ok {
		return
	}
	glog.V(2).Infof("[asteriobid] event %s queued", kind)
	m.metrics.eventsQueued.Mark(1)
	m.channel.Push(ev)
}

// Flush forces delivery of the queued events.
func (m *Module) Flush() {
	if m == nil || !m.enabled {
		return
	}
	m.channel.Flush()
}

// Shutdown flushes pending events and releases all timers and observers.
func (m *Module) Shutdown() {
	if m == nil || !m.enabled {
		return
	}
	m.closeOnce.Do(func() {
		m.watcher.Shutdown()
		m.channel.Close()
	})
}

// Options reports the configuration the session was enabled with.
func (m *Module) Options() Config {
	return m.cfg.Config
}

func (m *Module) pack(evs []projector.Event) ([]byte, error) {
	m.metrics.batchSize.Update(int64(len(evs)))
	env := Envelope{
		PageViewID:    m.cfg.PageViewID,
		Ver:           envelopeVersion,
		BundleID:      m.cfg.BundleID,
		Events:        evs,
		UTMTags:       m.collector.UTMTags(),
		PageInfo:      m.collector.PageInfo(),
		Sampling:      m.cfg.Sampling,
		PrebidTimeout: m.projector.PrebidTimeout(),
		Category:      m.projector.Category(),
		Version:       m.cfg.Version,
		TCFCompliant:  m.cfg.TCFCompliant,
		AdUnitDict:    m.cfg.AdUnitDict,
		CustomParam:   m.cfg.CustomParam,
	}
	return json.Marshal(env)
}

func (m *Module) instrument(send eventchannel.Sender) eventchannel.Sender {
	return func(payload []byte) error {
		if err := send(payload); err != nil {
			m.metrics.deliveryErrors.Mark(1)
			return err
		}
		m.metrics.batchesSent.Mark(1)
		return nil
	}
}

func (m *Module) armView(adUnitCode string) {
	containerID := adUnitCode
	if override, found := m.cfg.AdContainers[adUnitCode]; found && override != "" {
		containerID = override
	}
	m.watcher.Arm(adUnitCode, containerID)
}

func (m *Module) handleView(adUnitCode string) {
	ev, ok := m.projector.ProjectView(adUnitCode)
	if !ok {
		return
	}
	m.metrics.eventsQueued.Mark(1)
	// adView waits for the next scheduled flush; only auctionEnd flushes
	// immediately.
	m.channel.Push(ev)
}

// Visibility forwards an enter/exit transition from the host's visibility
// detection primitive to the watcher.
func (m *Module) Visibility(elementID string, visible bool) {
	if m == nil || !m.enabled {
		return
	}
	m.watcher.Visibility(elementID, visible)
}
