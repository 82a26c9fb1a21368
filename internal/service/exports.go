package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nurpe/proposals/internal/document"
	"github.com/nurpe/proposals/internal/model"
)

type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatDOCX ExportFormat = "docx"
	FormatPPTX ExportFormat = "pptx"
	FormatXLSX ExportFormat = "xlsx"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	case FormatPPTX:
		return FormatPPTX, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, raw)
	}
}

type PDFRenderer interface {
	Generate(tree model.ContentTree) ([]byte, error)
}

type WorkbookRenderer interface {
	Generate(tree model.ContentTree) ([]byte, error)
}

type DocumentRenderer interface {
	Export(ctx context.Context, tree model.ContentTree, format document.Format) (*document.Result, error)
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Exports renders content trees. Every renderer is a pure function of the tree.
type Exports struct {
	pdf       PDFRenderer
	documents DocumentRenderer
	workbook  WorkbookRenderer
}

func NewExports(pdf PDFRenderer, documents DocumentRenderer, workbook WorkbookRenderer) *Exports {
	return &Exports{pdf: pdf, documents: documents, workbook: workbook}
}

func (e *Exports) Render(ctx context.Context, tree model.ContentTree, format ExportFormat) (*ExportResult, error) {
	switch format {
	case FormatPDF:
		data, err := e.pdf.Generate(tree)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &ExportResult{
			FileName:    document.FileName(tree, "pdf"),
			ContentType: "application/pdf",
			Content:     data,
		}, nil
	case FormatXLSX:
		data, err := e.workbook.Generate(tree)
		if err != nil {
			return nil, fmt.Errorf("render workbook: %w", err)
		}
		return &ExportResult{
			FileName:    document.FileName(tree, "xlsx"),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     data,
		}, nil
	case FormatDOCX, FormatPPTX:
		res, err := e.documents.Export(ctx, tree, document.Format(format))
		if err != nil {
			if errors.Is(err, document.ErrPandocMissing) {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		return &ExportResult{FileName: res.Filename, ContentType: res.MimeType, Content: res.Data}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}
}
