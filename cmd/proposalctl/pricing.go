package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nurpe/proposals/internal/pricing"
	"github.com/nurpe/proposals/internal/service"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Print deliverable costs and package quotes for the active proposal",
	RunE:  runPricing,
}

func init() {
	rootCmd.AddCommand(pricingCmd)
}

func runPricing(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	tree, err := activeContent(cmd.Context(), e)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), service.BuildPricingReport(tree.Proposal))
	return nil
}

func printReport(w io.Writer, report *service.PricingReport) {
	fmt.Fprintln(w, "Deliverables:")
	for _, line := range report.Deliverables {
		fmt.Fprintf(w, "  %-32s %8.1f h  %s\n", line.Title, line.Hours, line.Price)
	}
	fmt.Fprintf(w, "  %-32s %10s  %s\n", "Total", "", pricing.FormatPrice(report.Total))

	fmt.Fprintln(w, "Packages:")
	for _, quote := range report.Quotes {
		fmt.Fprintf(w, "  %-32s %s, %s\n", quote.Package, quote.Price, quote.Duration)
	}

	if len(report.Issues) > 0 {
		fmt.Fprintln(w, "Issues:")
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "  [%s] %s\n", issue.Kind, issue.Message)
		}
	}
}
