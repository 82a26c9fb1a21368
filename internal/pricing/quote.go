package pricing

import (
	"github.com/nurpe/proposals/internal/model"
)

type Quote struct {
	Package        string   `json:"package"`
	AutoCalculated bool     `json:"auto_calculated"`
	Amount         float64  `json:"amount"`
	Months         int      `json:"months"`
	Price          string   `json:"price"`
	Duration       string   `json:"duration"`
	Unresolved     []string `json:"unresolved,omitempty"`
}

// QuotePackage computes what a package displays. Derived values are used when
// AutoCalculate is set; otherwise the stored price and duration strings are
// shown as entered.
func QuotePackage(pkg model.Package, all []model.Deliverable) Quote {
	amount := PackagePrice(pkg.IncludedDeliverables, all)
	months := PackageDurationMonths(pkg.IncludedDeliverables, all)
	q := Quote{
		Package:        pkg.Name,
		AutoCalculated: pkg.AutoCalculate,
		Amount:         amount,
		Months:         months,
		Price:          pkg.Price,
		Duration:       pkg.Duration,
		Unresolved:     unresolved(pkg.IncludedDeliverables, Index(all)),
	}
	if pkg.AutoCalculate {
		q.Price = FormatPrice(amount)
		q.Duration = FormatMonths(months)
	}
	return q
}

func QuoteAll(section model.ProposalSection) []Quote {
	quotes := make([]Quote, 0, len(section.Packages))
	for _, pkg := range section.Packages {
		quotes = append(quotes, QuotePackage(pkg, section.Deliverables))
	}
	return quotes
}

func unresolved(titles []string, index map[string]model.Deliverable) []string {
	var missing []string
	for _, title := range titles {
		if _, ok := index[title]; !ok {
			missing = append(missing, title)
		}
	}
	return missing
}
