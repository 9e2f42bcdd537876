// Package extract turns raw adapter content into profile fragments.
package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/render"
	"github.com/sells-group/prospect-cli/internal/resolver"
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]?\d{4}\b`)
	stateZipRe = regexp.MustCompile(`\b[A-Z]{2}[,.]?\s+\d{5}(?:-\d{4})?\b`)
	streetRe   = regexp.MustCompile(`(?i)\d+\s+[A-Za-z0-9\s,.]+\s+(?:St|Ave|Rd|Dr|Blvd|Ln|Drive|Street|Avenue|Road|Suite|Ste|Way|Circle|Cir)\b`)
	suiteRe    = regexp.MustCompile(`(?i)(?:Suite|Ste|Unit|Apt)\s+#?\w+`)
	digitsRe   = regexp.MustCompile(`\D`)
)

// maxSecondaryPages bounds how many contact/about pages are fetched per
// website candidate. The per-candidate timeout covers all of them.
const maxSecondaryPages = 3

// WebsiteExtractor scrapes a business website into a contact fragment.
// Beyond the landing page it follows same-host contact and about pages,
// where small businesses usually keep phone numbers and addresses.
type WebsiteExtractor struct {
	renderer render.Renderer
}

// NewWebsiteExtractor creates a WebsiteExtractor over the given renderer.
func NewWebsiteExtractor(renderer render.Renderer) *WebsiteExtractor {
	return &WebsiteExtractor{renderer: renderer}
}

// Extract renders a candidate URL and shapes its content into a website
// fragment. Returns false when the page is unreachable or yields nothing;
// the candidate is then dropped, never retried.
func (e *WebsiteExtractor) Extract(ctx context.Context, candidateURL string) (model.ProfileFragment, bool) {
	log := zap.L().With(zap.String("url", candidateURL))

	page, err := e.renderer.Render(ctx, candidateURL)
	if err != nil {
		log.Debug("extract: website unreachable", zap.Error(err))
		return model.ProfileFragment{}, false
	}

	frag := model.ProfileFragment{
		Source:  model.SourceWebsite,
		URL:     candidateURL,
		Website: candidateURL,
	}
	scraped := []string{candidateURL}
	collectPage(page, &frag)

	for _, sub := range secondaryPages(page) {
		if len(scraped) > maxSecondaryPages {
			break
		}
		subPage, subErr := e.renderer.Render(ctx, sub)
		if subErr != nil {
			log.Debug("extract: secondary page unreachable",
				zap.String("page", sub), zap.Error(subErr))
			continue
		}
		scraped = append(scraped, sub)
		collectPage(subPage, &frag)
	}

	frag.Emails = dedupe(frag.Emails)
	frag.Addresses = dedupe(frag.Addresses)
	frag.SocialLinks = dedupe(frag.SocialLinks)
	frag.Phones = dedupePhones(frag.Phones)
	frag.Raw = map[string]any{"scraped_pages": scraped, "title": page.Title}

	if len(frag.Emails) == 0 && len(frag.Phones) == 0 &&
		len(frag.Addresses) == 0 && len(frag.SocialLinks) == 0 {
		log.Debug("extract: website yielded no contact data")
		return model.ProfileFragment{}, false
	}

	log.Debug("extract: website fragment",
		zap.Int("emails", len(frag.Emails)),
		zap.Int("phones", len(frag.Phones)),
		zap.Int("addresses", len(frag.Addresses)),
	)
	return frag, true
}

// collectPage extracts emails, phones, addresses and social links from one
// rendered page into the fragment.
func collectPage(page *render.Page, frag *model.ProfileFragment) {
	frag.Emails = append(frag.Emails, Emails(page.Text)...)
	frag.Phones = append(frag.Phones, Phones(page.Text, page.URL)...)
	frag.Addresses = append(frag.Addresses, Addresses(page.Text)...)

	for _, link := range page.OutboundLinks {
		if resolver.IsSocial(link) {
			frag.SocialLinks = append(frag.SocialLinks, link)
		}
	}
}

// Emails returns lowercased email addresses found in free text. Asset
// filenames that the regex happens to match are filtered out.
func Emails(text string) []string {
	var out []string
	for _, m := range emailRe.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if len(m) >= 50 {
			continue
		}
		if strings.HasSuffix(m, ".png") || strings.HasSuffix(m, ".jpg") ||
			strings.HasSuffix(m, ".jpeg") || strings.HasSuffix(m, ".gif") {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Phones returns phone candidates found in text, scored by placement
// signals: appearing on a contact page and carrying an office-style label
// both raise the score. Text preceding the number on its line becomes the
// label.
func Phones(text, pageURL string) []model.PhoneCandidate {
	var out []model.PhoneCandidate
	onContactPage := strings.Contains(strings.ToLower(pageURL), "contact")

	for _, line := range strings.Split(text, "\n") {
		locs := phoneRe.FindAllStringIndex(line, -1)
		for _, loc := range locs {
			raw := line[loc[0]:loc[1]]
			number := formatPhone(raw)
			if number == "" {
				continue
			}

			label := strings.Trim(strings.TrimSpace(line[:loc[0]]), ": -")
			if len(label) > 50 {
				label = ""
			}

			score := 0
			if onContactPage {
				score += 10
			}
			lower := strings.ToLower(label)
			if strings.Contains(lower, "main") || strings.Contains(lower, "office") ||
				strings.Contains(lower, "headquarters") {
				score += 5
			}

			out = append(out, model.PhoneCandidate{Number: number, Label: label, Score: score})
		}
	}
	return out
}

// formatPhone normalizes a matched US number to +1 XXX-XXX-XXXX.
func formatPhone(raw string) string {
	digits := digitsRe.ReplaceAllString(raw, "")
	digits = strings.TrimPrefix(digits, "1")
	if len(digits) != 10 {
		return ""
	}
	return "+1 " + digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
}

// Addresses returns US street addresses assembled from consecutive lines.
// A candidate only counts once a state+ZIP line closes the buffer, which
// filters out bare street mentions in prose.
func Addresses(text string) []string {
	var (
		out    []string
		buffer []string
		hasZip bool
	)

	flush := func() {
		if len(buffer) > 0 && hasZip {
			addr := strings.Join(buffer, " ")
			if len(addr) > 10 {
				out = append(out, addr)
			}
		}
		buffer = nil
		hasZip = false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 150 {
			flush()
			continue
		}

		switch {
		case stateZipRe.MatchString(line):
			buffer = append(buffer, line)
			hasZip = true
		case streetRe.MatchString(line) && strings.IndexFunc(line, isDigit) >= 0,
			suiteRe.MatchString(line):
			buffer = append(buffer, line)
		default:
			flush()
		}
	}
	flush()

	return out
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// secondaryPages returns same-host contact and about page links, contact
// pages first.
func secondaryPages(page *render.Page) []string {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	var contact, about []string
	for _, link := range page.OutboundLinks {
		u, linkErr := url.Parse(link)
		if linkErr != nil || !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		lower := strings.ToLower(link)
		switch {
		case strings.Contains(lower, "contact"):
			contact = append(contact, link)
		case strings.Contains(lower, "about"):
			about = append(about, link)
		}
	}
	return append(contact, about...)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func dedupePhones(in []model.PhoneCandidate) []model.PhoneCandidate {
	seen := make(map[string]bool, len(in))
	out := make([]model.PhoneCandidate, 0, len(in))
	for _, p := range in {
		if !seen[p.Number] {
			seen[p.Number] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
