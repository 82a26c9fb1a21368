package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nurpe/proposals/internal/document"
	"github.com/nurpe/proposals/internal/excel"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/pdf"
	"github.com/nurpe/proposals/internal/repository"
	"github.com/nurpe/proposals/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the active proposal to a file",
	Long:  "Renders the active proposal as pdf, docx, pptx or xlsx. The default content is used when nothing has been saved yet.",
	RunE:  runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "pdf", "Output format: pdf, docx, pptx or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory")

	rootCmd.AddCommand(exportCmd)
}

func activeContent(ctx context.Context, e *env) (model.ContentTree, error) {
	record, err := repository.NewProposalRepository(e.db, e.cfg.Proposal.ShareLinkTTL).LoadActive(ctx)
	if err != nil {
		return model.ContentTree{}, fmt.Errorf("load active proposal: %w", err)
	}
	if record == nil {
		return model.DefaultContent(), nil
	}
	return record.Content, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := service.ParseExportFormat(exportFormat)
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	tree, err := activeContent(cmd.Context(), e)
	if err != nil {
		return err
	}

	exports := service.NewExports(pdf.NewGenerator(), document.NewExporter(e.cfg.Export.PandocPath), excel.NewGenerator())
	result, err := exports.Render(cmd.Context(), tree, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	if err := os.MkdirAll(exportOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(exportOut, result.FileName)
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(result.Content))
	return nil
}
