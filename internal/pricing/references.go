package pricing

import (
	"fmt"

	"github.com/nurpe/proposals/internal/model"
)

type IssueKind string

const (
	IssueDanglingReference IssueKind = "dangling_reference"
	IssueHiddenReference   IssueKind = "hidden_reference"
	IssueDuplicateTitle    IssueKind = "duplicate_title"
	IssueDuplicatePackage  IssueKind = "duplicate_package"
)

type Issue struct {
	Kind    IssueKind `json:"kind"`
	Package string    `json:"package,omitempty"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// ValidateReferences reports package inclusions that do not resolve to a
// visible deliverable, plus duplicated deliverable titles and package names.
// Pricing still treats unresolved titles as zero cost.
func ValidateReferences(section model.ProposalSection) []Issue {
	var issues []Issue

	seen := map[string]bool{}
	for _, d := range section.Deliverables {
		if seen[d.Title] {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateTitle,
				Title:   d.Title,
				Message: fmt.Sprintf("deliverable title %q is used more than once", d.Title),
			})
			continue
		}
		seen[d.Title] = true
	}

	hidden := map[string]bool{}
	for _, d := range section.HiddenDeliverables {
		hidden[d.Title] = true
	}

	names := map[string]bool{}
	for _, pkg := range section.Packages {
		if names[pkg.Name] {
			issues = append(issues, Issue{
				Kind:    IssueDuplicatePackage,
				Package: pkg.Name,
				Title:   pkg.Name,
				Message: fmt.Sprintf("package name %q is used more than once", pkg.Name),
			})
		}
		names[pkg.Name] = true

		for _, title := range pkg.IncludedDeliverables {
			if seen[title] {
				continue
			}
			if hidden[title] {
				issues = append(issues, Issue{
					Kind:    IssueHiddenReference,
					Package: pkg.Name,
					Title:   title,
					Message: fmt.Sprintf("package %q includes hidden deliverable %q", pkg.Name, title),
				})
				continue
			}
			issues = append(issues, Issue{
				Kind:    IssueDanglingReference,
				Package: pkg.Name,
				Title:   title,
				Message: fmt.Sprintf("package %q includes unknown deliverable %q", pkg.Name, title),
			})
		}
	}
	return issues
}
