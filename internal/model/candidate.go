package model

// SearchCandidate is one entity returned by the professional-network
// search: a named company page with corroborating signals. Rank is the
// source-assigned position (0 = first result).
type SearchCandidate struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Rank     int    `json:"rank"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Employee is a personnel candidate extracted from a professional-network
// company page.
type Employee struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}
