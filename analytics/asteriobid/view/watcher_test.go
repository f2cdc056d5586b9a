package view

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

type fakeObserver struct {
	mux        sync.Mutex
	observed   map[string]int
	unobserved map[string]int
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{observed: map[string]int{}, unobserved: map[string]int{}}
}

func (o *fakeObserver) Observe(id string) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.observed[id]++
}

func (o *fakeObserver) Unobserve(id string) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.unobserved[id]++
}

func newTestWatcher() (*Watcher, *fakeObserver, *clock.Mock, *[]string) {
	observer := newFakeObserver()
	clk := clock.NewMock()
	var views []string
	w := NewWatcher(observer, clk, time.Second, func(code string) {
		views = append(views, code)
	})
	return w, observer, clk, &views
}

func TestViewFiresAfterDwell(t *testing.T) {
	w, observer, clk, views := newTestWatcher()

	w.Arm("div1", "div1")
	assert.Equal(t, 1, observer.observed["div1"])

	w.Visibility("div1", true)
	clk.Add(time.Second)

	assert.Equal(t, []string{"div1"}, *views)
	assert.Equal(t, 1, observer.unobserved["div1"])

	// Fired is terminal: further visibility changes do nothing.
	w.Visibility("div1", false)
	w.Visibility("div1", true)
	clk.Add(2 * time.Second)
	assert.Equal(t, []string{"div1"}, *views)
}

func TestExitBeforeDwellCancels(t *testing.T) {
	w, observer, clk, views := newTestWatcher()

	w.Arm("div1", "div1")
	w.Visibility("div1", true)
	clk.Add(500 * time.Millisecond)
	w.Visibility("div1", false)
	clk.Add(2 * time.Second)

	assert.Empty(t, *views)
	// Still armed, still observed.
	assert.Zero(t, observer.unobserved["div1"])

	// A fresh continuous dwell still fires.
	w.Visibility("div1", true)
	clk.Add(time.Second)
	assert.Equal(t, []string{"div1"}, *views)
}

func TestRepeatedEnterDoesNotRestartDwell(t *testing.T) {
	w, _, clk, views := newTestWatcher()

	w.Arm("div1", "div1")
	w.Visibility("div1", true)
	clk.Add(700 * time.Millisecond)
	w.Visibility("div1", true)
	clk.Add(300 * time.Millisecond)

	assert.Equal(t, []string{"div1"}, *views)
}

func TestRearmAfterFire(t *testing.T) {
	w, observer, clk, views := newTestWatcher()

	w.Arm("div1", "container1")
	w.Visibility("container1", true)
	clk.Add(time.Second)
	assert.Equal(t, []string{"div1"}, *views)

	// A new win on the same ad unit restarts observation.
	w.Arm("div1", "container1")
	assert.Equal(t, 2, observer.observed["container1"])

	w.Visibility("container1", true)
	clk.Add(time.Second)
	assert.Equal(t, []string{"div1", "div1"}, *views)
}

func TestRearmWhileDwellingResets(t *testing.T) {
	w, _, clk, views := newTestWatcher()

	w.Arm("div1", "div1")
	w.Visibility("div1", true)
	clk.Add(500 * time.Millisecond)

	// Re-arming cancels the running countdown.
	w.Arm("div1", "div1")
	clk.Add(time.Second)
	assert.Empty(t, *views)
}

func TestUnknownElementIgnored(t *testing.T) {
	w, _, clk, views := newTestWatcher()

	w.Visibility("stranger", true)
	clk.Add(time.Second)
	assert.Empty(t, *views)
}

func TestShutdownCancels(t *testing.T) {
	w, observer, clk, views := newTestWatcher()

	w.Arm("div1", "div1")
	w.Visibility("div1", true)
	w.Shutdown()
	clk.Add(2 * time.Second)

	assert.Empty(t, *views)
	assert.Equal(t, 1, observer.unobserved["div1"])

	// Arming after shutdown is a no-op.
	w.Arm("div2", "div2")
	assert.Zero(t, observer.observed["div2"])
}
