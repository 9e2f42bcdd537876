package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/disambig"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/gsearch"
	"github.com/sells-group/prospect-cli/pkg/linkedin"
)

// fetchProfessional locates and parses the company's LinkedIn page. A
// page URL already present among the discovered social links wins;
// otherwise a scoped web search finds candidates and the disambiguator
// picks the one matching the bio location and the resolved website.
// Returns (nil, nil) when no page can be located.
func (p *Pipeline) fetchProfessional(ctx context.Context, st *runState) (*model.ProfileFragment, error) {
	pageURL := firstMatching(st.socialLinks, "linkedin.com")
	if pageURL == "" {
		var err error
		pageURL, err = p.searchCompanyPage(ctx, st)
		if err != nil {
			return nil, err
		}
		if pageURL == "" {
			return nil, nil
		}
	}

	page, err := p.fetchCompanyPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	frag := extract.ProfessionalFragment(page)
	return &frag, nil
}

// searchCompanyPage runs a site-scoped search for the company page and
// disambiguates between same-named businesses.
func (p *Pipeline) searchCompanyPage(ctx context.Context, st *runState) (string, error) {
	if p.search == nil {
		return "", eris.New("pipeline: no linkedin url and search not configured")
	}
	name := companyName(st)
	if name == "" {
		return "", nil
	}

	query := fmt.Sprintf(`site:linkedin.com/company %q`, name)
	if st.bio != nil && st.bio.Location != "" {
		query = fmt.Sprintf(`site:linkedin.com/company %q %q`, name, st.bio.Location)
	}

	results, err := resilience.DoVal(ctx, p.retry, "gsearch.search",
		func(ctx context.Context) ([]gsearch.Result, error) {
			return p.search.Search(ctx, query)
		})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: company page search")
	}

	candidates := searchCandidates(results)
	if len(candidates) == 0 {
		return "", nil
	}

	locationHint := ""
	if st.bio != nil {
		locationHint = st.bio.Location
	}
	picked, ok := disambig.Disambiguator{MinRelevance: disambig.DefaultMinRelevance}.
		Pick(name, candidates, locationHint, st.websiteDomain)
	if !ok {
		zap.L().Debug("pipeline: no search candidate passed disambiguation",
			zap.String("company", name), zap.Int("candidates", len(candidates)))
		return "", nil
	}
	return picked.URL, nil
}

// fetchCompanyPage fetches and parses the page, consulting the source
// cache first so repeat runs for the same company stay off the network.
func (p *Pipeline) fetchCompanyPage(ctx context.Context, pageURL string) (*linkedin.CompanyPage, error) {
	ttl := p.cfg.Cache.TTL()
	if cached, err := p.store.GetCachedSource(ctx, store.CacheSourceLinkedIn, pageURL); err == nil && cached != nil {
		var page linkedin.CompanyPage
		if err := json.Unmarshal(cached, &page); err == nil {
			return &page, nil
		}
	}

	page, err := resilience.DoVal(ctx, p.retry, "linkedin.fetch_company",
		func(ctx context.Context) (*linkedin.CompanyPage, error) {
			return p.linkedin.FetchCompany(ctx, pageURL)
		})
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(page); err == nil {
		if err := p.store.SetCachedSource(ctx, store.CacheSourceLinkedIn, pageURL, payload, ttl); err != nil {
			zap.L().Warn("pipeline: linkedin cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

// searchCandidates maps raw search results into disambiguation
// candidates, trimming the page-title suffix the site appends.
func searchCandidates(results []gsearch.Result) []model.SearchCandidate {
	out := make([]model.SearchCandidate, 0, len(results))
	for _, r := range results {
		if !strings.Contains(r.Link, "linkedin.com/company") {
			continue
		}
		name := r.Title
		if i := strings.Index(name, " | LinkedIn"); i >= 0 {
			name = name[:i]
		}
		if i := strings.Index(name, " - LinkedIn"); i >= 0 {
			name = name[:i]
		}
		out = append(out, model.SearchCandidate{
			Name:     strings.TrimSpace(name),
			URL:      r.Link,
			Rank:     r.Rank,
			Location: r.Snippet,
		})
	}
	return out
}

func companyName(st *runState) string {
	if st.bio == nil {
		return ""
	}
	if st.bio.FullName != "" {
		return st.bio.FullName
	}
	return st.bio.Username
}
