package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pricing"
)

// Generator renders a content tree to PDF, one page per section in document
// order. Shape overlays only affect the editor canvas and are not rendered.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(tree model.ContentTree) ([]byte, error) {
	pdf := g.render(tree)
	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type page struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *Generator) render(tree model.ContentTree) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(tree.Cover.Title, true)
	pdf.SetAuthor(tree.Cover.PreparedBy, true)

	p := &page{pdf: pdf, font: g.fontName, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, section := range model.Sections {
		if section == model.SectionShapes {
			continue
		}
		pdf.AddPage()
		p.section(section, tree)
	}
	return pdf
}

func (p *page) section(s model.Section, tree model.ContentTree) {
	switch s {
	case model.SectionCover:
		c := tree.Cover
		p.pdf.Ln(60)
		p.pdf.SetFont(p.font, "B", 26)
		p.pdf.MultiCell(0, 12, p.tr(safeValue(c.Title)), "", "C", false)
		p.pdf.SetFont(p.font, "", 14)
		p.pdf.MultiCell(0, 8, p.tr(c.Subtitle), "", "C", false)
		p.pdf.Ln(20)
		p.line("Prepared for", c.ClientName)
		p.line("Prepared by", c.PreparedBy)
		p.line("Date", c.Date)
	case model.SectionLetter:
		l := tree.Letter
		p.heading("Letter")
		p.paragraph(l.Greeting)
		for _, para := range l.Paragraphs {
			p.paragraph(para)
		}
		p.paragraph(l.Closing)
		p.pdf.SetFont(p.font, "B", 11)
		p.pdf.MultiCell(0, 6, p.tr(l.SignatureName), "", "L", false)
		p.pdf.SetFont(p.font, "", 10)
		p.pdf.MultiCell(0, 5, p.tr(l.SignatureTitle), "", "L", false)
	case model.SectionAbout:
		a := tree.About
		p.heading(a.Heading)
		p.paragraph(a.Intro)
		for _, pillar := range a.Pillars {
			p.item(pillar.Title, pillar.Description)
		}
	case model.SectionHowWeWork:
		h := tree.HowWeWork
		p.heading(h.Heading)
		p.paragraph(h.Intro)
		for i, step := range h.Steps {
			p.item(fmt.Sprintf("%d. %s", i+1, step.Title), step.Description)
		}
	case model.SectionSolutions:
		sol := tree.Solutions
		p.heading(sol.Heading)
		p.paragraph(sol.Intro)
		for _, item := range sol.Items {
			p.item(item.Title, item.Description)
		}
	case model.SectionMarkets:
		m := tree.Markets
		p.heading(m.Heading)
		p.paragraph(m.Intro)
		for _, market := range m.Markets {
			p.item(market.Name, market.Description)
		}
	case model.SectionClients:
		c := tree.Clients
		p.heading(c.Heading)
		p.paragraph(c.Intro)
		names := make([]string, 0, len(c.Logos))
		for _, logo := range c.Logos {
			names = append(names, logo.Name)
		}
		p.paragraph(strings.Join(names, "  |  "))
		for _, t := range c.Testimonials {
			p.item("\""+t.Quote+"\"", strings.Trim(t.Author+", "+t.Company, ", "))
		}
	case model.SectionTeam:
		t := tree.Team
		p.heading(t.Heading)
		p.paragraph(t.Intro)
		for _, member := range t.Members {
			p.item(strings.Trim(member.Name+" - "+member.Role, " -"), member.Bio)
		}
	case model.SectionProposal:
		p.proposal(tree.Proposal)
	case model.SectionValue:
		v := tree.Value
		p.heading(v.Heading)
		p.paragraph(v.Intro)
		for _, point := range v.Points {
			p.item(strings.Trim(point.Metric+" "+point.Title, " "), point.Description)
		}
	case model.SectionContact:
		c := tree.Contact
		p.heading(c.Heading)
		p.line("Contact", c.Name)
		p.line("Email", c.Email)
		p.line("Phone", c.Phone)
		p.line("Website", c.Website)
		p.line("Address", c.Address)
		p.pdf.Ln(6)
		p.paragraph(c.CallToAction)
	}
}

func (p *page) proposal(section model.ProposalSection) {
	p.heading(section.Heading)
	p.paragraph(section.Intro)

	headers := []string{"Deliverable", "Duration", "Hours", "Rate", "Cost"}
	widths := []float64{70, 30, 20, 25, 29}
	p.row(headers, widths, true)
	total := 0.0
	for _, d := range section.Deliverables {
		cost := pricing.DeliverableCost(d)
		total += cost
		p.row([]string{
			d.Title,
			formatDuration(d),
			formatAmount(pricing.DeliverableHours(d), 0),
			pricing.FormatPrice(d.Rate),
			pricing.FormatPrice(cost),
		}, widths, false)
	}
	p.pdf.SetFont(p.font, "B", 10)
	p.pdf.CellFormat(0, 8, p.tr("Total: "+pricing.FormatPrice(total)), "", 1, "R", false, 0, "")

	if len(section.Packages) > 0 {
		p.pdf.Ln(4)
		p.pdf.SetFont(p.font, "B", 12)
		p.pdf.CellFormat(0, 8, "Packages", "", 1, "L", false, 0, "")
		for _, q := range pricing.QuoteAll(section) {
			p.item(q.Package, strings.Trim(q.Price+" / "+q.Duration, " /"))
		}
	}
	p.paragraph(section.Notes)
}

func (p *page) heading(text string) {
	p.pdf.SetFont(p.font, "B", 18)
	p.pdf.MultiCell(0, 10, p.tr(safeValue(text)), "", "L", false)
	p.pdf.Ln(2)
}

func (p *page) paragraph(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.MultiCell(0, 6, p.tr(text), "", "L", false)
	p.pdf.Ln(2)
}

func (p *page) item(title, body string) {
	p.pdf.SetFont(p.font, "B", 11)
	p.pdf.MultiCell(0, 6, p.tr(title), "", "L", false)
	if body != "" {
		p.pdf.SetFont(p.font, "", 10)
		p.pdf.MultiCell(0, 5, p.tr(body), "", "L", false)
	}
	p.pdf.Ln(2)
}

func (p *page) line(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.CellFormat(0, 6, p.tr(fmt.Sprintf("%s: %s", label, value)), "", 1, "C", false, 0, "")
}

func (p *page) row(cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	p.pdf.SetFont(p.font, style, 9)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		p.pdf.CellFormat(widths[i], 7, p.tr(col), "1", 0, align, false, 0, "")
	}
	p.pdf.Ln(-1)
}

func formatDuration(d model.Deliverable) string {
	unit := model.DurationWeeks
	if d.DurationUnit == model.DurationMonths {
		unit = model.DurationMonths
	}
	return fmt.Sprintf("%s %s", formatAmount(d.Duration, 0), unit)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}
