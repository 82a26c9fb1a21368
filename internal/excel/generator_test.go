package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/proposals/internal/model"
)

func sampleTree() model.ContentTree {
	tree := model.DefaultContent()
	tree.Cover.Title = "Growth Proposal"
	tree.Proposal.Deliverables = []model.Deliverable{
		{Title: "A", Rate: 100, HoursPerPeriod: 10, Duration: 4, DurationUnit: model.DurationWeeks},
		{Title: "B", Rate: 50, HoursPerPeriod: 10, Duration: 3, DurationUnit: model.DurationWeeks},
	}
	tree.Proposal.Packages = []model.Package{
		{Name: "Full", IncludedDeliverables: []string{"A", "B"}, AutoCalculate: true},
	}
	return tree
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestGenerateWorkbook(t *testing.T) {
	data, err := NewGenerator().Generate(sampleTree())
	require.NoError(t, err)
	f := open(t, data)

	assert.Equal(t, []string{deliverablesSheet, packagesSheet}, f.GetSheetList())

	title, err := f.GetCellValue(deliverablesSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Growth Proposal", title)

	hours, err := f.GetCellValue(deliverablesSheet, "F5")
	require.NoError(t, err)
	assert.Equal(t, "40", hours)

	total, err := f.GetCellValue(deliverablesSheet, "G7")
	require.NoError(t, err)
	assert.Equal(t, "5500", total)

	price, err := f.GetCellValue(packagesSheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "$5,500", price)
}

func TestGenerateListsIssues(t *testing.T) {
	tree := sampleTree()
	tree.Proposal.Packages[0].IncludedDeliverables = []string{"A", "Missing"}

	data, err := NewGenerator().Generate(tree)
	require.NoError(t, err)
	f := open(t, data)

	assert.Contains(t, f.GetSheetList(), issuesSheet)
	kind, err := f.GetCellValue(issuesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "dangling_reference", kind)

	unresolved, err := f.GetCellValue(packagesSheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "Missing", unresolved)
}
