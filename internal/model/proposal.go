package model

type DurationUnit string

const (
	DurationWeeks  DurationUnit = "weeks"
	DurationMonths DurationUnit = "months"
)

type SubDeliverable struct {
	Name     string `json:"name"`
	Included bool   `json:"included"`
}

type Deliverable struct {
	Title           string           `json:"title" validate:"required"`
	Description     string           `json:"description"`
	Rate            float64          `json:"rate" validate:"gte=0"`
	HoursPerPeriod  float64          `json:"hoursPerPeriod" validate:"gte=0"`
	Duration        float64          `json:"duration" validate:"gte=0"`
	DurationUnit    DurationUnit     `json:"durationUnit" validate:"omitempty,oneof=weeks months"`
	SubDeliverables []SubDeliverable `json:"subDeliverables"`
}

// Package references deliverables by title. Price and Duration are display
// fallbacks used only when AutoCalculate is off.
type Package struct {
	Name                 string   `json:"name" validate:"required"`
	Description          string   `json:"description"`
	Price                string   `json:"price"`
	Duration             string   `json:"duration"`
	HoursPerWeek         float64  `json:"hoursPerWeek" validate:"gte=0"`
	DurationWeeks        float64  `json:"durationWeeks" validate:"gte=0"`
	Features             []string `json:"features"`
	IncludedDeliverables []string `json:"includedDeliverables"`
	AutoCalculate        bool     `json:"autoCalculate"`
}

type ProposalSection struct {
	Heading            string        `json:"heading"`
	Intro              string        `json:"intro"`
	Deliverables       []Deliverable `json:"deliverables" validate:"dive"`
	HiddenDeliverables []Deliverable `json:"hiddenDeliverables" validate:"dive"`
	Packages           []Package     `json:"packages" validate:"dive"`
	Notes              string        `json:"notes"`
}

// HideDeliverable moves the deliverable with the given title to the hidden
// list. The receiver is not modified.
func (p ProposalSection) HideDeliverable(title string) (ProposalSection, bool) {
	idx := indexOfDeliverable(p.Deliverables, title)
	if idx < 0 {
		return p, false
	}
	out := p
	out.Deliverables = make([]Deliverable, 0, len(p.Deliverables)-1)
	out.Deliverables = append(out.Deliverables, p.Deliverables[:idx]...)
	out.Deliverables = append(out.Deliverables, p.Deliverables[idx+1:]...)
	out.HiddenDeliverables = append(append([]Deliverable{}, p.HiddenDeliverables...), p.Deliverables[idx])
	return out, true
}

// RestoreDeliverable moves a hidden deliverable back to the end of the visible list.
func (p ProposalSection) RestoreDeliverable(title string) (ProposalSection, bool) {
	idx := indexOfDeliverable(p.HiddenDeliverables, title)
	if idx < 0 {
		return p, false
	}
	out := p
	out.HiddenDeliverables = make([]Deliverable, 0, len(p.HiddenDeliverables)-1)
	out.HiddenDeliverables = append(out.HiddenDeliverables, p.HiddenDeliverables[:idx]...)
	out.HiddenDeliverables = append(out.HiddenDeliverables, p.HiddenDeliverables[idx+1:]...)
	out.Deliverables = append(append([]Deliverable{}, p.Deliverables...), p.HiddenDeliverables[idx])
	return out, true
}

// MoveDeliverable reorders the visible list, moving the item at from to to.
func (p ProposalSection) MoveDeliverable(from, to int) (ProposalSection, bool) {
	n := len(p.Deliverables)
	if from < 0 || from >= n || to < 0 || to >= n {
		return p, false
	}
	out := p
	items := append([]Deliverable{}, p.Deliverables...)
	moved := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]Deliverable{moved}, items[to:]...)...)
	out.Deliverables = items
	return out, true
}

func indexOfDeliverable(items []Deliverable, title string) int {
	for i, d := range items {
		if d.Title == title {
			return i
		}
	}
	return -1
}
