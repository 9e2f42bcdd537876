// Package model defines the shared data types for the enrichment pipeline.
package model

// Source identifies the origin of a profile fragment.
type Source string

const (
	SourceBio          Source = "instagram"
	SourceWebsite      Source = "website"
	SourceSecondary    Source = "facebook"
	SourceProfessional Source = "linkedin"
)

// Tier returns the pipeline rank of a source. Lower tiers run earlier;
// the fuser uses tiers to make merge output independent of arrival order.
func (s Source) Tier() int {
	switch s {
	case SourceBio:
		return 0
	case SourceWebsite:
		return 1
	case SourceSecondary:
		return 2
	case SourceProfessional:
		return 3
	default:
		return 99
	}
}

// PhoneCandidate is a phone number with the context it was found in.
// Score reflects placement signals (contact page, header/footer, label).
type PhoneCandidate struct {
	Number string `json:"number"`
	Label  string `json:"label,omitempty"`
	Score  int    `json:"score"`
}

// ProfileFragment is a partial, source-attributed set of profile field
// values. Fragments are immutable once produced; the pipeline accumulates
// them in an append-only list and the fuser resolves them into one profile.
type ProfileFragment struct {
	Source      Source           `json:"source"`
	URL         string           `json:"url,omitempty"`
	FullName    string           `json:"full_name,omitempty"`
	FirstName   string           `json:"first_name,omitempty"`
	LastName    string           `json:"last_name,omitempty"`
	Role        string           `json:"role,omitempty"`
	Company     string           `json:"company,omitempty"`
	Location    string           `json:"location,omitempty"`
	Website     string           `json:"website,omitempty"`
	Emails      []string         `json:"emails,omitempty"`
	Phones      []PhoneCandidate `json:"phones,omitempty"`
	Addresses   []string         `json:"addresses,omitempty"`
	SocialLinks []string         `json:"social_links,omitempty"`
	Raw         map[string]any   `json:"raw,omitempty"`
}

// Empty reports whether the fragment carries no usable field values.
func (f ProfileFragment) Empty() bool {
	return f.FullName == "" && f.FirstName == "" && f.Role == "" &&
		f.Company == "" && f.Website == "" &&
		len(f.Emails) == 0 && len(f.Phones) == 0 &&
		len(f.Addresses) == 0 && len(f.SocialLinks) == 0
}

// ProfileMetadata retains the raw per-source payloads for auditability.
// Full payloads are kept even when a field is not promoted to top level.
type ProfileMetadata struct {
	Handle       string            `json:"handle"`
	Fragments    []ProfileFragment `json:"fragments"`
	EnrichedData map[string]any    `json:"enriched_data,omitempty"`
	LinkedInData map[string]any    `json:"linkedin_data,omitempty"`
}

// ConsolidatedProfile is the final merged output of one enrichment run.
// Every scalar field holds at most one value, chosen by the fuser's
// precedence rules; unset fields stay empty.
type ConsolidatedProfile struct {
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Role        string          `json:"role"`
	Company     string          `json:"company"`
	Website     string          `json:"website"`
	SocialLinks []string        `json:"social_links,omitempty"`
	Metadata    ProfileMetadata `json:"metadata"`
}
