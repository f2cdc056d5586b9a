package enrichment

import (
	"net/url"

	"github.com/golang/glog"
)

var utmKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

const storagePrefix = "pm_"

// RefererResolver supplies the page and referrer URLs of the current page
// view. It is re-read on every flush so single-page navigations are
// picked up.
type RefererResolver interface {
	Page() string
	Ref() string
}

// StaticReferer resolves to fixed URLs, for hosts that know their page
// context up front.
type StaticReferer struct {
	PageURL     string
	ReferrerURL string
}

func (r StaticReferer) Page() string { return r.PageURL }
func (r StaticReferer) Ref() string  { return r.ReferrerURL }

// PageInfo is the page context attached to every batch.
type PageInfo struct {
	Domain         string `json:"domain,omitempty"`
	ReferrerDomain string `json:"referrerDomain,omitempty"`
	Page           string `json:"page,omitempty"`
	Ref            string `json:"ref,omitempty"`
}

// Collector gathers batch-level metadata. It never fails a flush: any
// trouble collecting UTM data degrades to an error_utm marker.
type Collector struct {
	storage Storage
	referer RefererResolver
}

func NewCollector(storage Storage, referer RefererResolver) *Collector {
	return &Collector{storage: storage, referer: referer}
}

// UTMTags reads the UTM query parameters from the current page URL. When
// any is present, all five are persisted and the fresh values win; when
// none is, previously persisted values fill in. All five keys are always
// present in the result, empty-valued if unknown.
func (c *Collector) UTMTags() map[string]any {
	tags := make(map[string]any, len(utmKeys))

	pageURL, err := url.Parse(c.referer.Page())
	if err != nil {
		glog.Errorf("[asteriobid] fail to parse page url: %v", err)
		tags["error_utm"] = 1
		return tags
	}
	query := pageURL.Query()

	newUTM := false
	for _, key := range utmKeys {
		value := query.Get(key)
		if value != "" {
			newUTM = true
		}
		tags[key] = value
	}

	if !newUTM {
		for _, key := range utmKeys {
			if stored := c.storage.Get(storagePrefix + key); stored != "" {
				tags[key] = stored
			}
		}
		return tags
	}

	for _, key := range utmKeys {
		if err := c.storage.Set(storagePrefix+key, tags[key].(string)); err != nil {
			glog.Errorf("[asteriobid] fail to persist utm tag %s: %v", key, err)
			tags["error_utm"] = 1
			return tags
		}
	}
	return tags
}

// PageInfo resolves the page and referrer context for the batch.
func (c *Collector) PageInfo() PageInfo {
	info := PageInfo{
		Page: c.referer.Page(),
		Ref:  c.referer.Ref(),
	}
	if u, err := url.Parse(info.Page); err == nil {
		info.Domain = u.Hostname()
	}
	if info.Ref != "" {
		if u, err := url.Parse(info.Ref); err == nil {
			info.ReferrerDomain = u.Hostname()
		}
	}
	return info
}
