package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/proposals/internal/model"
)

func sampleSection() model.ProposalSection {
	return model.ProposalSection{
		Deliverables: []model.Deliverable{
			deliverable("Strategy", 100, 10, 4, model.DurationWeeks),
			deliverable("Design", 50, 10, 3, model.DurationWeeks),
			deliverable("Design", 75, 10, 3, model.DurationWeeks),
		},
		HiddenDeliverables: []model.Deliverable{
			deliverable("Legacy", 10, 1, 1, model.DurationWeeks),
		},
		Packages: []model.Package{
			{
				Name:                 "Growth",
				Price:                "$1",
				Duration:             "forever",
				IncludedDeliverables: []string{"Strategy", "Design"},
				AutoCalculate:        true,
			},
			{
				Name:                 "Custom",
				Price:                "Let's talk",
				Duration:             "Flexible",
				IncludedDeliverables: []string{"Strategy", "Legacy", "Ghost"},
			},
		},
	}
}

func TestQuotePackageAutoCalculated(t *testing.T) {
	section := sampleSection()

	q := QuotePackage(section.Packages[0], section.Deliverables)

	assert.True(t, q.AutoCalculated)
	assert.Equal(t, 5500.0, q.Amount)
	assert.Equal(t, "$5,500", q.Price)
	assert.Equal(t, "1 month", q.Duration)
	assert.Empty(t, q.Unresolved)
}

func TestQuotePackageUsesStoredFallback(t *testing.T) {
	section := sampleSection()

	q := QuotePackage(section.Packages[1], section.Deliverables)

	assert.False(t, q.AutoCalculated)
	assert.Equal(t, "Let's talk", q.Price)
	assert.Equal(t, "Flexible", q.Duration)
	assert.Equal(t, 4000.0, q.Amount)
	assert.Equal(t, []string{"Legacy", "Ghost"}, q.Unresolved)
}

func TestQuoteAll(t *testing.T) {
	quotes := QuoteAll(sampleSection())

	require.Len(t, quotes, 2)
	assert.Equal(t, "Growth", quotes[0].Package)
	assert.Equal(t, "Custom", quotes[1].Package)
}

func TestValidateReferences(t *testing.T) {
	section := sampleSection()
	section.Packages = append(section.Packages, model.Package{Name: "Growth"})

	issues := ValidateReferences(section)

	kinds := map[IssueKind][]string{}
	for _, issue := range issues {
		kinds[issue.Kind] = append(kinds[issue.Kind], issue.Title)
	}
	assert.Equal(t, []string{"Design"}, kinds[IssueDuplicateTitle])
	assert.Equal(t, []string{"Legacy"}, kinds[IssueHiddenReference])
	assert.Equal(t, []string{"Ghost"}, kinds[IssueDanglingReference])
	assert.Equal(t, []string{"Growth"}, kinds[IssueDuplicatePackage])
}

func TestValidateReferencesClean(t *testing.T) {
	section := model.ProposalSection{
		Deliverables: []model.Deliverable{deliverable("A", 1, 1, 1, model.DurationWeeks)},
		Packages:     []model.Package{{Name: "P", IncludedDeliverables: []string{"A"}}},
	}

	assert.Empty(t, ValidateReferences(section))
}
