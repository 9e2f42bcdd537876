package extract

import (
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/linkedin"
)

// ProfessionalFragment shapes a professional-network company page into a
// fragment. The full page payload is retained in Raw so the consolidated
// profile's metadata keeps it even when no field is promoted.
func ProfessionalFragment(page *linkedin.CompanyPage) model.ProfileFragment {
	frag := model.ProfileFragment{
		Source:   model.SourceProfessional,
		URL:      page.URL,
		Company:  page.Name,
		Website:  page.Website,
		Location: page.Headquarters,
		Raw: map[string]any{
			"url":            page.URL,
			"name":           page.Name,
			"website":        page.Website,
			"about":          page.About,
			"headquarters":   page.Headquarters,
			"employee_count": page.EmployeeCount,
			"employees":      page.Employees,
		},
	}

	employees := make([]model.Employee, 0, len(page.Employees))
	for _, e := range page.Employees {
		employees = append(employees, model.Employee{Name: e.Name, Title: e.Title})
	}

	if contact, ok := SelectPrimaryContact(employees); ok {
		frag.FullName = contact.Name
		frag.FirstName, frag.LastName = SplitName(contact.Name)
		frag.Role = contact.Title
	}

	return frag
}
