package document

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os/exec"
	"strings"

	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pricing"
)

type Format string

const (
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
)

var ErrPandocMissing = errors.New("pandoc is not installed")

//go:embed templates/proposal.html
var templateFS embed.FS

var proposalTemplate = template.Must(template.New("proposal.html").Funcs(template.FuncMap{
	"heading": func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	},
}).ParseFS(templateFS, "templates/proposal.html"))

type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Exporter converts a content tree into Word and slide documents by piping
// rendered HTML through pandoc.
type Exporter struct {
	pandocPath string
}

func NewExporter(pandocPath string) *Exporter {
	if pandocPath == "" {
		pandocPath = "pandoc"
	}
	return &Exporter{pandocPath: pandocPath}
}

func (e *Exporter) Available() bool {
	_, err := exec.LookPath(e.pandocPath)
	return err == nil
}

func (e *Exporter) Export(ctx context.Context, tree model.ContentTree, format Format) (*Result, error) {
	var args []string
	var mime string
	switch format {
	case FormatDOCX:
		args = []string{"-f", "html", "-t", "docx", "--standalone", "-o", "-"}
		mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPPTX:
		args = []string{"-f", "html", "-t", "pptx", "--slide-level=1", "-o", "-"}
		mime = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	if !e.Available() {
		return nil, ErrPandocMissing
	}

	html, err := RenderHTML(tree)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.pandocPath, args...)
	cmd.Stdin = strings.NewReader(html)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pandoc failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("pandoc execution failed: %w", err)
	}

	return &Result{
		Data:     output,
		Filename: FileName(tree, string(format)),
		MimeType: mime,
	}, nil
}

type deliverableRow struct {
	Title    string
	Duration string
	Hours    string
	Cost     string
}

type templateData struct {
	model.ContentTree
	Deliverables []deliverableRow
	Quotes       []pricing.Quote
}

// RenderHTML produces the HTML document pandoc converts. Sections appear in
// document order.
func RenderHTML(tree model.ContentTree) (string, error) {
	data := templateData{ContentTree: tree, Quotes: pricing.QuoteAll(tree.Proposal)}
	for _, d := range tree.Proposal.Deliverables {
		unit := model.DurationWeeks
		if d.DurationUnit == model.DurationMonths {
			unit = model.DurationMonths
		}
		data.Deliverables = append(data.Deliverables, deliverableRow{
			Title:    d.Title,
			Duration: fmt.Sprintf("%g %s", d.Duration, unit),
			Hours:    fmt.Sprintf("%.0f", pricing.DeliverableHours(d)),
			Cost:     pricing.FormatPrice(pricing.DeliverableCost(d)),
		})
	}

	var buf bytes.Buffer
	if err := proposalTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render proposal html: %w", err)
	}
	return buf.String(), nil
}

// FileName derives a download name from the cover title.
func FileName(tree model.ContentTree, ext string) string {
	base := strings.TrimSpace(tree.Cover.Title)
	if base == "" {
		base = "proposal"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "", "<", "", ">", "", "|", "-")
	base = strings.ToLower(strings.Join(strings.Fields(replacer.Replace(base)), "-"))
	return base + "." + ext
}
