// Package resolver expands link-aggregator pages ("link in bio" services)
// into the candidate business URLs they point at.
package resolver

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/render"
)

// aggregatorServices are the known link-in-bio hosts. A bio URL on one of
// these domains is resolved instead of crawled directly.
var aggregatorServices = []string{
	"linktr.ee",
	"linktree.com",
	"bio.link",
	"beacons.ai",
	"hoo.be",
	"solo.to",
	"allmylinks.com",
	"carrd.co",
	"taplink.cc",
	"linkpop.com",
	"shorby.com",
	"campsite.bio",
}

// socialDomains classify outbound links as social profiles rather than
// business websites. Social links are kept aside for the later stages.
var socialDomains = []string{
	"linkedin.com",
	"facebook.com",
	"fb.com",
	"fb.me",
	"twitter.com",
	"x.com",
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"pinterest.com",
	"instagram.com",
}

// Resolution is the classified outcome of expanding an aggregator page.
// Ordering follows page order; both lists are de-duplicated.
type Resolution struct {
	WebsiteLinks []string
	SocialLinks  []string
}

// Resolver expands aggregator pages through a page renderer.
type Resolver struct {
	renderer render.Renderer
	maxLinks int
}

// New creates a Resolver. maxLinks caps the number of website candidates
// returned; zero or negative means no cap.
func New(renderer render.Renderer, maxLinks int) *Resolver {
	return &Resolver{renderer: renderer, maxLinks: maxLinks}
}

// IsAggregator reports whether a URL belongs to a known link-in-bio service.
func IsAggregator(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, svc := range aggregatorServices {
		if host == svc || strings.HasSuffix(host, "."+svc) {
			return true
		}
	}
	return false
}

// IsSocial reports whether a URL points at a known social platform.
func IsSocial(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, d := range socialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Resolve fetches an aggregator page and returns its outbound links,
// classified and de-duplicated. Links back to the aggregator's own domain
// or to any aggregator service are excluded to break self-referential
// loops; social-platform links never count as website candidates.
// Resolve never fails: an unreachable or empty page yields an empty
// Resolution and downstream falls back to no website enrichment.
func (r *Resolver) Resolve(ctx context.Context, aggregatorURL string) Resolution {
	log := zap.L().With(zap.String("aggregator", aggregatorURL))

	var res Resolution
	page, err := r.renderer.Render(ctx, aggregatorURL)
	if err != nil {
		log.Warn("resolver: aggregator page unreachable", zap.Error(err))
		return res
	}

	selfHost := hostOf(aggregatorURL)
	seen := map[string]bool{}

	for _, link := range page.OutboundLinks {
		key := normalize(link)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if IsSocial(link) {
			res.SocialLinks = append(res.SocialLinks, link)
			continue
		}
		if IsAggregator(link) || hostOf(link) == selfHost {
			continue
		}
		res.WebsiteLinks = append(res.WebsiteLinks, link)
	}

	if r.maxLinks > 0 && len(res.WebsiteLinks) > r.maxLinks {
		res.WebsiteLinks = res.WebsiteLinks[:r.maxLinks]
	}

	log.Info("resolver: aggregator expanded",
		zap.Int("websites", len(res.WebsiteLinks)),
		zap.Int("socials", len(res.SocialLinks)),
	)
	return res
}

// normalize produces the de-duplication key for a link: lowercased, with
// the www prefix and any trailing slash stripped.
func normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Scheme = strings.ToLower(u.Scheme)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""
	return strings.ToLower(u.String())
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
