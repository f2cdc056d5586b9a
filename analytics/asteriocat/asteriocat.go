package asteriocat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/asteriobid/prebid-analytics/analytics/asteriobid/enrichment"
	"github.com/asteriobid/prebid-analytics/util/task"
)

const defaultEndpoint = "https://endpt.asteriocat.com"

// Config for the page-category fetcher. An empty Refresh fetches once at
// startup; otherwise the categorization is re-fetched on that interval.
type Config struct {
	Endpoint string `mapstructure:"endpoint"`
	Refresh  string `mapstructure:"refresh"`
}

// Fetcher asks the AsterioCat service to categorize the current page and
// injects the result into OpenRTB site objects that carry no taxonomy of
// their own.
type Fetcher struct {
	client   *http.Client
	endpoint string
	referer  enrichment.RefererResolver
	task     *task.TickerTask

	mux        sync.RWMutex
	categories []string
	fetchTime  int64

	readyOnce sync.Once
	ready     chan struct{}
}

// NewFetcher starts the categorization fetch in the background. Callers
// that must not enrich before the first answer wait on Ready.
func NewFetcher(cfg Config, client *http.Client, referer enrichment.RefererResolver) (*Fetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	var refresh time.Duration
	if cfg.Refresh != "" {
		parsed, err := time.ParseDuration(cfg.Refresh)
		if err != nil {
			return nil, fmt.Errorf("fail to parse asteriocat refresh: %v", err)
		}
		refresh = parsed
	}

	f := &Fetcher{
		client:   client,
		endpoint: endpoint,
		referer:  referer,
		ready:    make(chan struct{}),
	}
	f.task = task.NewTickerTaskFromFunc(refresh, f.fetch)
	go f.task.Start()
	return f, nil
}

// Ready is closed once the first categorization attempt has completed,
// successfully or not.
func (f *Fetcher) Ready() <-chan struct{} {
	return f.ready
}

func (f *Fetcher) Stop() {
	f.task.Stop()
}

// Inject adds the fetched page categories to a site that has none, along
// with ext.asteriocat bookkeeping. Sites already carrying any of cat,
// sectioncat or pagecat are left untouched.
func (f *Fetcher) Inject(site *openrtb2.Site) error {
	if site == nil {
		return nil
	}
	if len(site.Cat) > 0 || len(site.SectionCat) > 0 || len(site.PageCat) > 0 {
		glog.V(2).Infof("[asteriocat] request already contains categories")
		return nil
	}

	f.mux.RLock()
	categories := f.categories
	fetchTime := f.fetchTime
	f.mux.RUnlock()

	ext := site.Ext
	if len(ext) == 0 {
		ext = []byte(`{}`)
	}
	ext, err := jsonparser.Set(ext, []byte("true"), "asteriocat", "enabled")
	if err != nil {
		return fmt.Errorf("fail to set site ext: %v", err)
	}
	ext, err = jsonparser.Set(ext, []byte(strconv.FormatInt(fetchTime, 10)), "asteriocat", "time")
	if err != nil {
		return fmt.Errorf("fail to set site ext: %v", err)
	}
	site.Ext = ext

	if len(categories) > 0 {
		site.PageCat = categories
	}
	return nil
}

type categorizeResponse struct {
	Status     string   `json:"status"`
	Categories []string `json:"categories"`
}

func (f *Fetcher) fetch() error {
	defer f.readyOnce.Do(func() { close(f.ready) })

	start := time.Now()
	categories, err := f.categorize()
	elapsed := time.Since(start).Milliseconds()

	f.mux.Lock()
	f.categories = categories
	f.fetchTime = elapsed
	f.mux.Unlock()

	if err != nil {
		// Degrade to "no categories"; enrichment is best effort.
		glog.Warningf("[asteriocat] fail to fetch page categories: %v", err)
		return err
	}
	glog.Infof("[asteriocat] page categories: %v", categories)
	return nil
}

func (f *Fetcher) categorize() ([]string, error) {
	pageURL := f.referer.Page()
	res, err := f.client.Get(f.endpoint + "/api/categorize?url=" + url.QueryEscape(pageURL))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wrong code received %d instead of %d", res.StatusCode, http.StatusOK)
	}

	var parsed categorizeResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "ok" {
		glog.V(2).Infof("[asteriocat] no categories, status: %s", parsed.Status)
		return nil, nil
	}
	return parsed.Categories, nil
}
