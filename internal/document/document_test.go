package document

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/proposals/internal/model"
)

func sampleTree() model.ContentTree {
	tree := model.DefaultContent()
	tree.Cover.Title = "Growth Proposal"
	tree.Letter.Paragraphs = []string{"First paragraph", "Second <b>paragraph</b>"}
	tree.Team.Heading = "Our People"
	tree.Proposal.Deliverables = []model.Deliverable{
		{Title: "Discovery", Rate: 100, HoursPerPeriod: 10, Duration: 4, DurationUnit: model.DurationWeeks},
	}
	tree.Proposal.Packages = []model.Package{
		{Name: "Starter", IncludedDeliverables: []string{"Discovery"}, AutoCalculate: true},
	}
	return tree
}

func TestRenderHTMLFallbackHeadings(t *testing.T) {
	tree := sampleTree()
	tree.About.Heading = ""
	html, err := RenderHTML(tree)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>About</h1>")
}

func TestRenderHTMLSectionOrder(t *testing.T) {
	html, err := RenderHTML(sampleTree())
	require.NoError(t, err)

	order := []string{"<h1>Growth Proposal</h1>", "<h1>Letter</h1>", "<h1>About Us</h1>", "<h1>How We Work</h1>",
		"<h1>Solutions</h1>", "<h1>Markets We Serve</h1>", "<h1>Our Clients</h1>", "<h1>Our People</h1>",
		"<h1>Our Proposal</h1>", "<h1>The Value We Bring</h1>", "<h1>Get in Touch</h1>"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(html, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestRenderHTMLEscapesAndPrices(t *testing.T) {
	html, err := RenderHTML(sampleTree())
	require.NoError(t, err)
	assert.Contains(t, html, "Second &lt;b&gt;paragraph&lt;/b&gt;")
	assert.Contains(t, html, "<td>$4,000</td>")
	assert.Contains(t, html, "$4,000 / 1 month")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "growth-proposal.docx", FileName(sampleTree(), "docx"))
	assert.Equal(t, "partnership-proposal.pptx", FileName(model.DefaultContent(), "pptx"))

	tree := model.DefaultContent()
	tree.Cover.Title = "  "
	assert.Equal(t, "proposal.xlsx", FileName(tree, "xlsx"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := NewExporter("").Export(context.Background(), sampleTree(), Format("odt"))
	assert.Error(t, err)
}

func TestExportMissingPandoc(t *testing.T) {
	_, err := NewExporter("/nonexistent/pandoc").Export(context.Background(), sampleTree(), FormatDOCX)
	assert.ErrorIs(t, err, ErrPandocMissing)
}

func TestExportWithPandoc(t *testing.T) {
	exporter := NewExporter("pandoc")
	if !exporter.Available() {
		t.Skip("pandoc not installed")
	}
	for _, format := range []Format{FormatDOCX, FormatPPTX} {
		res, err := exporter.Export(context.Background(), sampleTree(), format)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(res.Data, []byte("PK")), "office documents are zip archives")
		assert.Equal(t, "growth-proposal."+string(format), res.Filename)
	}
}
