package view

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// Observer is the visibility-detection primitive. The watcher tells it
// which elements to track; the primitive reports enter/exit transitions
// back through Watcher.Visibility.
type Observer interface {
	Observe(elementID string)
	Unobserve(elementID string)
}

// NopObserver is the default when the host has no visibility detection.
type NopObserver struct{}

func (NopObserver) Observe(string)   {}
func (NopObserver) Unobserve(string) {}

type state int

const (
	// armed: observing, element not currently visible.
	armed state = iota
	// dwelling: visible, dwell countdown running.
	dwelling
	// fired: view reported, observation ceased for this win.
	fired
)

type element struct {
	adUnitCode string
	state      state
	timer      *clock.Timer
}

// Watcher defers a synthetic view event per winning bid until its element
// has been continuously visible for the dwell time. At most one view
// fires per win; a later win on the same ad unit re-arms the element.
type Watcher struct {
	mux      sync.Mutex
	observer Observer
	clock    clock.Clock
	dwell    time.Duration
	onView   func(adUnitCode string)
	elements map[string]*element
	closed   bool
}

func NewWatcher(observer Observer, clk clock.Clock, dwell time.Duration, onView func(adUnitCode string)) *Watcher {
	return &Watcher{
		observer: observer,
		clock:    clk,
		dwell:    dwell,
		onView:   onView,
		elements: map[string]*element{},
	}
}

// Arm starts (or restarts) observation of the container element rendering
// the ad unit's winning bid.
func (w *Watcher) Arm(adUnitCode, elementID string) {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed {
		return
	}

	if el, found := w.elements[elementID]; found {
		el.adUnitCode = adUnitCode
		if el.timer != nil {
			el.timer.Stop()
			el.timer = nil
		}
		if el.state == fired {
			w.observer.Observe(elementID)
		}
		el.state = armed
		return
	}

	w.elements[elementID] = &element{adUnitCode: adUnitCode, state: armed}
	w.observer.Observe(elementID)
}

// Visibility is called by the detection primitive on every enter or exit
// of an observed element. Entering starts the dwell countdown; exiting
// before it completes cancels it and re-arms.
func (w *Watcher) Visibility(elementID string, visible bool) {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed {
		return
	}

	el, found := w.elements[elementID]
	if !found || el.state == fired {
		return
	}

	if visible {
		if el.state == dwelling {
			return
		}
		el.state = dwelling
		el.timer = w.clock.AfterFunc(w.dwell, func() {
			w.fire(elementID)
		})
		return
	}

	if el.state == dwelling {
		el.timer.Stop()
		el.timer = nil
		el.state = armed
	}
}

// Shutdown cancels all countdowns and stops observation.
func (w *Watcher) Shutdown() {
	w.mux.Lock()
	defer w.mux.Unlock()
	w.closed = true
	for id, el := range w.elements {
		if el.timer != nil {
			el.timer.Stop()
			el.timer = nil
		}
		w.observer.Unobserve(id)
	}
}

func (w *Watcher) fire(elementID string) {
	w.mux.Lock()
	el, found := w.elements[elementID]
	if !found || w.closed || el.state != dwelling {
		w.mux.Unlock()
		return
	}
	el.state = fired
	el.timer = nil
	code := el.adUnitCode
	w.observer.Unobserve(elementID)
	w.mux.Unlock()

	glog.Infof("[asteriobid] ad unit %q viewed", code)
	if w.onView != nil {
		w.onView(code)
	}
}
