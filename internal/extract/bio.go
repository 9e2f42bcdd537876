package extract

import (
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/instagram"
)

// BioFragment shapes a fetched bio profile into the seed fragment. The
// account's display name is the best company-name guess this early in the
// run; later stages override it under the fuser's precedence rules.
func BioFragment(handle string, p *instagram.Profile) model.ProfileFragment {
	company := p.FullName
	if company == "" {
		company = p.Username
	}

	frag := model.ProfileFragment{
		Source:   model.SourceBio,
		URL:      "https://www.instagram.com/" + strings.TrimPrefix(handle, "@"),
		Company:  company,
		FullName: p.FullName,
		Location: p.Location,
		Website:  p.ExternalURL,
		Emails:   Emails(p.Bio),
		Raw: map[string]any{
			"username":     p.Username,
			"bio":          p.Bio,
			"external_url": p.ExternalURL,
			"followers":    p.Followers,
			"is_business":  p.IsBusiness,
		},
	}
	return frag
}
