package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pricing"
)

const (
	deliverablesSheet = "Deliverables"
	packagesSheet     = "Packages"
	issuesSheet       = "Issues"
)

// Generator builds the pricing workbook: visible deliverables with hours and
// cost, package quotes, and reference problems when there are any.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(tree model.ContentTree) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", deliverablesSheet); err != nil {
		return nil, err
	}
	if err := g.writeDeliverables(file, tree); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(packagesSheet); err != nil {
		return nil, err
	}
	if err := g.writePackages(file, tree.Proposal); err != nil {
		return nil, err
	}

	if issues := pricing.ValidateReferences(tree.Proposal); len(issues) > 0 {
		if _, err := file.NewSheet(issuesSheet); err != nil {
			return nil, err
		}
		g.writeIssues(file, issues)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeDeliverables(file *excelize.File, tree model.ContentTree) error {
	sheet := deliverablesSheet
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Proposal")
	set("B1", tree.Cover.Title)
	set("A2", "Client")
	set("B2", tree.Cover.ClientName)

	tableRow := 4
	headers := []string{"Deliverable", "Rate", "Hours per period", "Duration", "Unit", "Hours", "Cost"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	if err := g.boldRow(file, sheet, tableRow, len(headers)); err != nil {
		return err
	}

	total := 0.0
	for i, d := range tree.Proposal.Deliverables {
		row := tableRow + 1 + i
		cost := pricing.DeliverableCost(d)
		total += cost
		set(fmt.Sprintf("A%d", row), d.Title)
		set(fmt.Sprintf("B%d", row), d.Rate)
		set(fmt.Sprintf("C%d", row), d.HoursPerPeriod)
		set(fmt.Sprintf("D%d", row), d.Duration)
		set(fmt.Sprintf("E%d", row), unitLabel(d.DurationUnit))
		set(fmt.Sprintf("F%d", row), pricing.DeliverableHours(d))
		set(fmt.Sprintf("G%d", row), cost)
	}
	totalRow := tableRow + 1 + len(tree.Proposal.Deliverables)
	set(fmt.Sprintf("F%d", totalRow), "Total")
	set(fmt.Sprintf("G%d", totalRow), total)

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "F", 16)
	_ = file.SetColWidth(sheet, "G", "G", 18)
	return nil
}

func (g *Generator) writePackages(file *excelize.File, section model.ProposalSection) error {
	sheet := packagesSheet
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Package", "Auto", "Amount", "Months", "Price", "Duration", "Unresolved"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}
	if err := g.boldRow(file, sheet, 1, len(headers)); err != nil {
		return err
	}

	for i, q := range pricing.QuoteAll(section) {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), q.Package)
		set(fmt.Sprintf("B%d", row), q.AutoCalculated)
		set(fmt.Sprintf("C%d", row), q.Amount)
		set(fmt.Sprintf("D%d", row), q.Months)
		set(fmt.Sprintf("E%d", row), q.Price)
		set(fmt.Sprintf("F%d", row), q.Duration)
		set(fmt.Sprintf("G%d", row), strings.Join(q.Unresolved, ", "))
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "F", 14)
	_ = file.SetColWidth(sheet, "G", "G", 40)
	return nil
}

func (g *Generator) writeIssues(file *excelize.File, issues []pricing.Issue) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(issuesSheet, cell, value)
	}
	set("A1", "Kind")
	set("B1", "Package")
	set("C1", "Title")
	set("D1", "Message")
	for i, issue := range issues {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), string(issue.Kind))
		set(fmt.Sprintf("B%d", row), issue.Package)
		set(fmt.Sprintf("C%d", row), issue.Title)
		set(fmt.Sprintf("D%d", row), issue.Message)
	}
	_ = file.SetColWidth(issuesSheet, "A", "C", 28)
	_ = file.SetColWidth(issuesSheet, "D", "D", 60)
}

func (g *Generator) boldRow(file *excelize.File, sheet string, row, cols int) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(cols, row)
	return file.SetCellStyle(sheet, start, end, style)
}

func unitLabel(unit model.DurationUnit) string {
	if unit == model.DurationMonths {
		return string(model.DurationMonths)
	}
	return string(model.DurationWeeks)
}

