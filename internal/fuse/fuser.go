// Package fuse merges source-attributed profile fragments into one
// consolidated profile by per-field precedence rules.
package fuse

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resolver"
)

// Fuser resolves fragments into a ConsolidatedProfile. Merge is pure and
// deterministic: identical fragment sets produce identical output
// regardless of arrival order.
type Fuser struct {
	cfg *Config
}

// New creates a Fuser. A nil config uses the defaults.
func New(cfg *Config) *Fuser {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Fuser{cfg: cfg}
}

// Merge fuses the accumulated fragments into one profile. Every scalar
// field is resolved independently, so neighbouring fields may come from
// different fragments. Unset fields stay empty.
func (f *Fuser) Merge(handle string, fragments []model.ProfileFragment) model.ConsolidatedProfile {
	usable := make([]model.ProfileFragment, 0, len(fragments))
	for _, fr := range fragments {
		if fr.Empty() {
			continue
		}
		usable = append(usable, fr)
	}
	frags := sortedCopy(usable)

	profile := model.ConsolidatedProfile{
		Metadata: model.ProfileMetadata{
			Handle:    handle,
			Fragments: frags,
		},
	}

	// Website first: the company domain it yields gates email acceptance.
	profile.Website = resolveWebsite(frags)
	companyDomain := domainOf(profile.Website)

	profile.Email = resolveEmail(frags, companyDomain)
	profile.FirstName = f.scalar(frags, "first_name", func(fr model.ProfileFragment) string { return fr.FirstName })
	profile.LastName = f.scalar(frags, "last_name", func(fr model.ProfileFragment) string { return fr.LastName })
	profile.Role = f.scalar(frags, "role", func(fr model.ProfileFragment) string { return fr.Role })
	profile.Company = f.scalar(frags, "company", func(fr model.ProfileFragment) string { return fr.Company })
	profile.Phone = f.scalar(frags, "phone", bestPhone)
	profile.Address = f.scalar(frags, "address", firstAddress)
	profile.SocialLinks = collectSocialLinks(frags)

	fillMetadata(&profile.Metadata, frags)

	return profile
}

// scalar resolves one field by walking its source precedence list and
// returning the first non-empty value. Within one source tier, fragments
// are already in deterministic order.
func (f *Fuser) scalar(frags []model.ProfileFragment, field string, get func(model.ProfileFragment) string) string {
	for _, src := range f.cfg.order(field) {
		for _, fr := range frags {
			if fr.Source != src {
				continue
			}
			if v := get(fr); v != "" {
				return v
			}
		}
	}
	return ""
}

// resolveWebsite prefers the bio's direct link over resolved aggregator
// candidates. Aggregator URLs themselves never win: they are a pointer to
// a website, not the website. Among crawled candidates, "first" means
// first in deterministic fragment order, not first to finish.
func resolveWebsite(frags []model.ProfileFragment) string {
	for _, fr := range frags {
		if fr.Source == model.SourceBio && fr.Website != "" && !resolver.IsAggregator(fr.Website) {
			return fr.Website
		}
	}
	for _, fr := range frags {
		if fr.Source == model.SourceWebsite && fr.Website != "" {
			return fr.Website
		}
	}
	return ""
}

// resolveEmail applies the domain-gating rule: an email is accepted only
// when its domain matches the resolved company domain; otherwise it is
// demoted to the bio-fallback tier. When both a bio and a website email
// match the domain, the bio email wins: the account owner declared it.
func resolveEmail(frags []model.ProfileFragment, companyDomain string) string {
	if companyDomain != "" {
		for _, fr := range frags {
			for _, email := range sortedEmails(fr.Emails) {
				if emailDomain(email) == companyDomain {
					return email
				}
			}
		}
	}

	// Fallback tier: the bio-listed email, even off-domain.
	for _, fr := range frags {
		if fr.Source != model.SourceBio {
			continue
		}
		for _, email := range sortedEmails(fr.Emails) {
			if companyDomain != "" && emailDomain(email) != companyDomain {
				zap.L().Debug("fuse: email demoted to bio fallback",
					zap.String("email", email),
					zap.String("company_domain", companyDomain),
				)
			}
			return email
		}
	}
	return ""
}

// bestPhone picks a fragment's highest-scored phone candidate, ties
// broken by number ordering.
func bestPhone(fr model.ProfileFragment) string {
	if len(fr.Phones) == 0 {
		return ""
	}
	best := fr.Phones[0]
	for _, p := range fr.Phones[1:] {
		if p.Score > best.Score || (p.Score == best.Score && p.Number < best.Number) {
			best = p
		}
	}
	return best.Number
}

func firstAddress(fr model.ProfileFragment) string {
	if len(fr.Addresses) == 0 {
		return ""
	}
	return fr.Addresses[0]
}

func collectSocialLinks(frags []model.ProfileFragment) []string {
	seen := map[string]bool{}
	var out []string
	for _, fr := range frags {
		for _, l := range fr.SocialLinks {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Strings(out)
	return out
}

// fillMetadata retains full source payloads for auditability, keyed the
// way downstream consumers expect them.
func fillMetadata(meta *model.ProfileMetadata, frags []model.ProfileFragment) {
	enriched := map[string]any{}
	for _, fr := range frags {
		switch fr.Source {
		case model.SourceWebsite, model.SourceSecondary:
			if fr.Raw != nil {
				enriched[fr.URL] = fr.Raw
			}
		case model.SourceProfessional:
			if fr.Raw != nil {
				meta.LinkedInData = fr.Raw
			}
		}
	}
	if len(enriched) > 0 {
		meta.EnrichedData = enriched
	}
}

// sortedCopy orders fragments by (tier, source, URL) so the merge result
// is independent of arrival order.
func sortedCopy(fragments []model.ProfileFragment) []model.ProfileFragment {
	frags := make([]model.ProfileFragment, len(fragments))
	copy(frags, fragments)
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Source.Tier() != frags[j].Source.Tier() {
			return frags[i].Source.Tier() < frags[j].Source.Tier()
		}
		if frags[i].Source != frags[j].Source {
			return frags[i].Source < frags[j].Source
		}
		return frags[i].URL < frags[j].URL
	})
	return frags
}

func sortedEmails(emails []string) []string {
	out := make([]string, len(emails))
	copy(out, emails)
	sort.Strings(out)
	return out
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(email[at+1:]), "www.")
}

func domainOf(rawURL string) string {
	raw := strings.TrimSpace(strings.ToLower(rawURL))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
