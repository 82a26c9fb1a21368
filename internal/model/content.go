package model

import "fmt"

type Section string

const (
	SectionCover     Section = "cover"
	SectionLetter    Section = "letter"
	SectionAbout     Section = "about"
	SectionHowWeWork Section = "howWeWork"
	SectionSolutions Section = "solutions"
	SectionMarkets   Section = "markets"
	SectionClients   Section = "clients"
	SectionTeam      Section = "team"
	SectionProposal  Section = "proposal"
	SectionValue     Section = "value"
	SectionContact   Section = "contact"
	SectionShapes    Section = "shapes"
)

// Sections lists every section in document order. Renderers walk this order.
var Sections = []Section{
	SectionCover,
	SectionLetter,
	SectionAbout,
	SectionHowWeWork,
	SectionSolutions,
	SectionMarkets,
	SectionClients,
	SectionTeam,
	SectionProposal,
	SectionValue,
	SectionContact,
	SectionShapes,
}

func ParseSection(raw string) (Section, error) {
	for _, s := range Sections {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", raw)
}

type ContentTree struct {
	Cover     CoverSection     `json:"cover"`
	Letter    LetterSection    `json:"letter"`
	About     AboutSection     `json:"about"`
	HowWeWork HowWeWorkSection `json:"howWeWork"`
	Solutions SolutionsSection `json:"solutions"`
	Markets   MarketsSection   `json:"markets"`
	Clients   ClientsSection   `json:"clients"`
	Team      TeamSection      `json:"team"`
	Proposal  ProposalSection  `json:"proposal"`
	Value     ValueSection     `json:"value"`
	Contact   ContactSection   `json:"contact"`
	Shapes    Shapes           `json:"shapes"`
}

// SectionPtr returns a pointer to the named section inside the tree.
func (t *ContentTree) SectionPtr(s Section) (any, error) {
	switch s {
	case SectionCover:
		return &t.Cover, nil
	case SectionLetter:
		return &t.Letter, nil
	case SectionAbout:
		return &t.About, nil
	case SectionHowWeWork:
		return &t.HowWeWork, nil
	case SectionSolutions:
		return &t.Solutions, nil
	case SectionMarkets:
		return &t.Markets, nil
	case SectionClients:
		return &t.Clients, nil
	case SectionTeam:
		return &t.Team, nil
	case SectionProposal:
		return &t.Proposal, nil
	case SectionValue:
		return &t.Value, nil
	case SectionContact:
		return &t.Contact, nil
	case SectionShapes:
		return &t.Shapes, nil
	default:
		return nil, fmt.Errorf("unknown section %q", s)
	}
}

type CoverSection struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	ClientName    string `json:"clientName"`
	PreparedBy    string `json:"preparedBy"`
	Date          string `json:"date"`
	LogoURL       string `json:"logoUrl"`
	BackgroundURL string `json:"backgroundUrl"`
}

type LetterSection struct {
	Greeting       string   `json:"greeting"`
	Paragraphs     []string `json:"paragraphs"`
	Closing        string   `json:"closing"`
	SignatureName  string   `json:"signatureName"`
	SignatureTitle string   `json:"signatureTitle"`
	SignatureImage string   `json:"signatureImage"`
}

type Pillar struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type AboutSection struct {
	Heading string   `json:"heading"`
	Intro   string   `json:"intro"`
	Image   string   `json:"image"`
	Pillars []Pillar `json:"pillars"`
}

type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type HowWeWorkSection struct {
	Heading string `json:"heading"`
	Intro   string `json:"intro"`
	Steps   []Step `json:"steps"`
}

type Solution struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type SolutionsSection struct {
	Heading string     `json:"heading"`
	Intro   string     `json:"intro"`
	Items   []Solution `json:"items"`
}

type Market struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type MarketsSection struct {
	Heading string   `json:"heading"`
	Intro   string   `json:"intro"`
	Markets []Market `json:"markets"`
}

type ClientLogo struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

type Testimonial struct {
	Quote   string `json:"quote"`
	Author  string `json:"author"`
	Company string `json:"company"`
}

type ClientsSection struct {
	Heading      string        `json:"heading"`
	Intro        string        `json:"intro"`
	Logos        []ClientLogo  `json:"logos"`
	Testimonials []Testimonial `json:"testimonials"`
}

type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Bio   string `json:"bio"`
	Image string `json:"image"`
	Email string `json:"email"`
}

type TeamSection struct {
	Heading string       `json:"heading"`
	Intro   string       `json:"intro"`
	Members []TeamMember `json:"members"`
}

type ValuePoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
}

type ValueSection struct {
	Heading string       `json:"heading"`
	Intro   string       `json:"intro"`
	Points  []ValuePoint `json:"points"`
}

type ContactSection struct {
	Heading      string `json:"heading"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	Address      string `json:"address"`
	CallToAction string `json:"callToAction"`
}
