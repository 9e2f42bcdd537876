// Package pipeline orchestrates the enrichment state machine for a
// single seed handle: bio fetch, link resolution, website crawl,
// contact check, secondary social, professional network, and fusion.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/crawler"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/fuse"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/render"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/resolver"
	"github.com/sells-group/prospect-cli/internal/session"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/facebook"
	"github.com/sells-group/prospect-cli/pkg/gsearch"
	"github.com/sells-group/prospect-cli/pkg/instagram"
	"github.com/sells-group/prospect-cli/pkg/linkedin"
)

// Pipeline state names, in execution order. Each run walks these states
// front to back; states that cannot produce data record a degraded or
// skipped stage result and the walk continues.
const (
	StateBioFetched       = "bio_fetched"
	StateLinksResolved    = "links_resolved"
	StateWebsiteCrawled   = "website_crawled"
	StateContactChecked   = "contact_checked"
	StateSecondaryDone    = "secondary_done"
	StateProfessionalDone = "professional_done"
	StateFused            = "fused"
)

// Pipeline drives one enrichment run end to end.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	instagram instagram.Client
	search    gsearch.Client
	linkedin  linkedin.Client
	resolver  *resolver.Resolver
	crawler   *crawler.Crawler
	fuser     *fuse.Fuser

	// newSessions builds the session manager for one run. Sessions are
	// run-scoped: concurrent runs must not share an authenticated
	// client, so each run constructs its own manager on first use.
	newSessions func() *session.Manager

	// facebook is normally built lazily from the run's session manager
	// the first time the secondary stage actually runs. Tests inject one.
	facebook facebook.Client

	retry resilience.Config
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	igClient instagram.Client,
	searchClient gsearch.Client,
	liClient linkedin.Client,
	renderer render.Renderer,
	fuser *fuse.Fuser,
	newSessions func() *session.Manager,
) *Pipeline {
	extractor := extract.NewWebsiteExtractor(renderer)
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		instagram: igClient,
		search:    searchClient,
		linkedin:  liClient,
		resolver:  resolver.New(renderer, cfg.Resolve.MaxLinks),
		crawler: crawler.New(extractor, cfg.Crawl.Workers,
			time.Duration(cfg.Crawl.TimeoutSecs)*time.Second, cfg.Crawl.RPS),
		fuser:       fuser,
		newSessions: newSessions,
		retry:       resilience.DefaultConfig(),
	}
}

// SetFacebookClient overrides lazy session-based client construction.
// Used by tests.
func (p *Pipeline) SetFacebookClient(c facebook.Client) {
	p.facebook = c
}

// runState carries the working data a run accumulates as it walks the
// state machine. Fragments are append-only; stages never modify what an
// earlier stage produced.
type runState struct {
	bio           *instagram.Profile
	fragments     []model.ProfileFragment
	candidates    []string
	socialLinks   []string
	websiteDomain string

	// sessions is this run's session manager, built from the pipeline's
	// factory when the secondary branch is first taken.
	sessions *session.Manager
}

// Run executes the full enrichment pipeline for a single handle. The
// returned error is non-nil only for fatal conditions: an unknown seed
// handle or a store failure. Everything else degrades in place and is
// recorded on the stage results.
func (p *Pipeline) Run(ctx context.Context, handle string) (*model.RunResult, error) {
	log := zap.L().With(zap.String("handle", handle))
	log.Info("pipeline: starting enrichment")

	run, err := p.store.CreateRun(ctx, handle)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	if statusErr := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); statusErr != nil {
		log.Warn("pipeline: failed to update status", zap.Error(statusErr))
	}

	result := &model.RunResult{}
	st := &runState{}

	record := func(state string, status model.StageStatus, reason string, fragments int, start time.Time) {
		sr := model.StageResult{
			State:     state,
			Status:    status,
			Reason:    reason,
			Fragments: fragments,
			Duration:  time.Since(start).Milliseconds(),
		}
		result.Stages = append(result.Stages, sr)
		if status == model.StageStatusComplete {
			log.Info("pipeline: stage complete",
				zap.String("state", state), zap.Int("fragments", fragments),
				zap.Int64("duration_ms", sr.Duration))
		} else {
			log.Warn("pipeline: stage did not complete",
				zap.String("state", state), zap.String("status", string(status)),
				zap.String("reason", reason))
		}
	}

	// Bio fetch. The only fatal outcome of the whole run: the seed
	// handle does not exist.
	start := time.Now()
	if err := p.fetchBio(ctx, handle, st); err != nil {
		if eris.Is(err, instagram.ErrProfileNotFound) {
			result.Error = err.Error()
			record(StateBioFetched, model.StageStatusDegraded, err.Error(), 0, start)
			p.finish(ctx, log, run.ID, result)
			return result, eris.Wrapf(err, "pipeline: handle %s", handle)
		}
		record(StateBioFetched, model.StageStatusDegraded, err.Error(), 0, start)
	} else {
		record(StateBioFetched, model.StageStatusComplete, "", 1, start)
	}

	// Link resolution.
	start = time.Now()
	p.resolveLinks(ctx, st)
	record(StateLinksResolved, model.StageStatusComplete, "", len(st.fragments), start)

	// Website crawl.
	start = time.Now()
	if len(st.candidates) == 0 {
		record(StateWebsiteCrawled, model.StageStatusDegraded, "no website candidates", 0, start)
	} else {
		frags := p.crawler.Crawl(ctx, st.candidates)
		st.fragments = append(st.fragments, frags...)
		status := model.StageStatusComplete
		reason := ""
		if len(frags) == 0 {
			status = model.StageStatusDegraded
			reason = "no candidate site yielded contact data"
		}
		record(StateWebsiteCrawled, status, reason, len(frags), start)
	}

	// Contact check gates the secondary-social stage.
	start = time.Now()
	complete := contactComplete(st.fragments)
	record(StateContactChecked, model.StageStatusComplete, "", 0, start)

	// Secondary social. Only consulted when the crawl left a phone or
	// address gap, and only when the bio or crawl surfaced a page link.
	start = time.Now()
	switch {
	case complete:
		record(StateSecondaryDone, model.StageStatusSkipped, "contact info already complete", 0, start)
	default:
		frag, err := p.fetchSecondary(ctx, st)
		switch {
		case err != nil:
			record(StateSecondaryDone, model.StageStatusDegraded, err.Error(), 0, start)
		case frag == nil:
			record(StateSecondaryDone, model.StageStatusSkipped, "no facebook page link", 0, start)
		default:
			st.fragments = append(st.fragments, *frag)
			record(StateSecondaryDone, model.StageStatusComplete, "", 1, start)
		}
	}

	// Professional network.
	start = time.Now()
	frag, err := p.fetchProfessional(ctx, st)
	switch {
	case err != nil:
		record(StateProfessionalDone, model.StageStatusDegraded, err.Error(), 0, start)
	case frag == nil:
		record(StateProfessionalDone, model.StageStatusSkipped, "no company page found", 0, start)
	default:
		st.fragments = append(st.fragments, *frag)
		record(StateProfessionalDone, model.StageStatusComplete, "", 1, start)
	}

	// Fusion. Pure, always succeeds.
	start = time.Now()
	profile := p.fuser.Merge(handle, st.fragments)
	result.Profile = &profile
	record(StateFused, model.StageStatusComplete, "", len(st.fragments), start)

	p.finish(ctx, log, run.ID, result)
	log.Info("pipeline: enrichment finished", zap.Int("fragments", len(st.fragments)))
	return result, nil
}

func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, runID string, result *model.RunResult) {
	err := resilience.Do(ctx, p.retry, "store.update_run_result",
		func(ctx context.Context) error {
			return p.store.UpdateRunResult(ctx, runID, result)
		})
	if err != nil {
		log.Warn("pipeline: failed to persist result", zap.Error(err))
	}
}

func (p *Pipeline) fetchBio(ctx context.Context, handle string, st *runState) error {
	profile, err := resilience.DoVal(ctx, p.retry, "instagram.fetch_profile",
		func(ctx context.Context) (*instagram.Profile, error) {
			return p.instagram.FetchProfile(ctx, handle)
		})
	if err != nil {
		return err
	}
	st.bio = profile
	return nil
}

// resolveLinks dereferences the bio link. A direct business site becomes
// the sole crawl candidate; an aggregator page is expanded into website
// candidates plus any social links it lists. The bio fragment is built
// here so it can carry the discovered social links.
func (p *Pipeline) resolveLinks(ctx context.Context, st *runState) {
	if st.bio == nil {
		return
	}

	frag := extract.BioFragment(st.bio.Username, st.bio)

	if st.bio.ExternalURL != "" {
		if resolver.IsAggregator(st.bio.ExternalURL) {
			res := p.resolver.Resolve(ctx, st.bio.ExternalURL)
			st.candidates = res.WebsiteLinks
			st.socialLinks = res.SocialLinks
			frag.SocialLinks = res.SocialLinks
		} else if resolver.IsSocial(st.bio.ExternalURL) {
			st.socialLinks = []string{st.bio.ExternalURL}
			frag.SocialLinks = st.socialLinks
		} else {
			st.candidates = []string{st.bio.ExternalURL}
		}
	}

	if len(st.candidates) > 0 {
		st.websiteDomain = domainOf(st.candidates[0])
	}
	st.fragments = append(st.fragments, frag)
}

// contactComplete reports whether the fragments collected so far hold
// both a phone number and a street address.
func contactComplete(frags []model.ProfileFragment) bool {
	var phone, address bool
	for _, f := range frags {
		if len(f.Phones) > 0 {
			phone = true
		}
		if len(f.Addresses) > 0 {
			address = true
		}
	}
	return phone && address
}

// fetchSecondary pulls contact details from a linked Facebook page. The
// login session is acquired lazily here so runs that never reach this
// stage never touch browser cookie stores.
func (p *Pipeline) fetchSecondary(ctx context.Context, st *runState) (*model.ProfileFragment, error) {
	pageURL := firstMatching(st.socialLinks, "facebook.com")
	if pageURL == "" {
		return nil, nil
	}

	ttl := p.cfg.Cache.TTL()
	if cached, err := p.store.GetCachedSource(ctx, store.CacheSourceFacebook, pageURL); err == nil && cached != nil {
		var info facebook.ContactInfo
		if err := json.Unmarshal(cached, &info); err == nil {
			frag := extract.SecondaryFragment(pageURL, &info)
			return &frag, nil
		}
	}

	client := p.facebook
	if client == nil {
		if st.sessions == nil {
			if p.newSessions == nil {
				return nil, eris.New("pipeline: no session source configured")
			}
			st.sessions = p.newSessions()
		}
		hc, err := st.sessions.Client(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: facebook session")
		}
		client = facebook.NewClient(facebook.WithHTTPClient(hc))
	}

	info, err := resilience.DoVal(ctx, p.retry, "facebook.fetch_contact",
		func(ctx context.Context) (*facebook.ContactInfo, error) {
			return client.FetchContact(ctx, pageURL)
		})
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(info); err == nil {
		if err := p.store.SetCachedSource(ctx, store.CacheSourceFacebook, pageURL, payload, ttl); err != nil {
			zap.L().Warn("pipeline: facebook cache write failed", zap.Error(err))
		}
	}

	frag := extract.SecondaryFragment(pageURL, info)
	return &frag, nil
}

func firstMatching(links []string, domain string) string {
	for _, l := range links {
		if strings.Contains(strings.ToLower(l), domain) {
			return l
		}
	}
	return ""
}

func domainOf(rawURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimPrefix(strings.ToLower(u), "www.")
}
