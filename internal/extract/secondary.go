package extract

import (
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/facebook"
)

// SecondaryFragment shapes secondary-social contact info into a fragment.
// Address candidates come from the page's visible text, using the same
// line heuristics as the website extractor.
func SecondaryFragment(pageURL string, info *facebook.ContactInfo) model.ProfileFragment {
	frag := model.ProfileFragment{
		Source: model.SourceSecondary,
		URL:    pageURL,
		Emails: info.Emails,
		Raw: map[string]any{
			"page":   pageURL,
			"emails": info.Emails,
			"phones": info.Phones,
		},
	}

	for _, p := range info.Phones {
		if number := formatPhone(p); number != "" {
			frag.Phones = append(frag.Phones, model.PhoneCandidate{Number: number})
		}
	}
	frag.Phones = dedupePhones(frag.Phones)
	frag.Addresses = Addresses(info.Text)

	return frag
}
