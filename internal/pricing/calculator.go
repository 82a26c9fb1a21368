package pricing

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nurpe/proposals/internal/model"
)

const WeeksPerMonth = 4.345

var usd = message.NewPrinter(language.AmericanEnglish)

// DeliverableHours is hours per period times the duration. Durations in
// months go through WeeksPerMonth and are rounded to whole hours; any other
// unit is treated as weeks.
func DeliverableHours(d model.Deliverable) float64 {
	var hours float64
	if d.DurationUnit == model.DurationMonths {
		hours = math.Round(d.HoursPerPeriod * d.Duration * WeeksPerMonth)
	} else {
		hours = d.HoursPerPeriod * d.Duration
	}
	if hours < 0 {
		return 0
	}
	return hours
}

func DeliverableCost(d model.Deliverable) float64 {
	return d.Rate * DeliverableHours(d)
}

// PackagePrice sums the cost of every included title that resolves. Titles
// with no matching deliverable contribute nothing.
func PackagePrice(includedTitles []string, all []model.Deliverable) float64 {
	index := Index(all)
	total := 0.0
	for _, title := range includedTitles {
		if d, ok := index[title]; ok {
			total += DeliverableCost(d)
		}
	}
	return total
}

// PackageDurationMonths is the longest included span in months, rounded up,
// never below one. Deliverables run concurrently so spans are not summed.
func PackageDurationMonths(includedTitles []string, all []model.Deliverable) int {
	index := Index(all)
	longest := 0.0
	for _, title := range includedTitles {
		d, ok := index[title]
		if !ok {
			continue
		}
		if span := spanMonths(d); span > longest {
			longest = span
		}
	}
	months := int(math.Ceil(longest))
	if months < 1 {
		return 1
	}
	return months
}

func spanMonths(d model.Deliverable) float64 {
	if d.DurationUnit == model.DurationMonths {
		return d.Duration
	}
	return d.Duration / WeeksPerMonth
}

// FormatPrice renders whole US dollars with en-US grouping, e.g. $5,500.
func FormatPrice(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return usd.Sprintf("-$%d", -rounded)
	}
	return usd.Sprintf("$%d", rounded)
}

func FormatMonths(months int) string {
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

// Index maps deliverable titles to deliverables. The first occurrence of a
// duplicated title wins.
func Index(all []model.Deliverable) map[string]model.Deliverable {
	index := make(map[string]model.Deliverable, len(all))
	for _, d := range all {
		if _, exists := index[d.Title]; exists {
			continue
		}
		index[d.Title] = d
	}
	return index
}
