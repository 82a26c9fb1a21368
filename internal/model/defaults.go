package model

func DefaultContent() ContentTree {
	return ContentTree{
		Cover: CoverSection{
			Title:      "Partnership Proposal",
			Subtitle:   "Prepared exclusively for you",
			ClientName: "Client Name",
			PreparedBy: "Our Team",
		},
		Letter: LetterSection{
			Greeting:   "Dear Client,",
			Paragraphs: []string{"Thank you for the opportunity to present this proposal."},
			Closing:    "Sincerely,",
		},
		About: AboutSection{
			Heading: "About Us",
			Pillars: []Pillar{},
		},
		HowWeWork: HowWeWorkSection{
			Heading: "How We Work",
			Steps:   []Step{},
		},
		Solutions: SolutionsSection{
			Heading: "Solutions",
			Items:   []Solution{},
		},
		Markets: MarketsSection{
			Heading: "Markets We Serve",
			Markets: []Market{},
		},
		Clients: ClientsSection{
			Heading:      "Our Clients",
			Logos:        []ClientLogo{},
			Testimonials: []Testimonial{},
		},
		Team: TeamSection{
			Heading: "Meet the Team",
			Members: []TeamMember{},
		},
		Proposal: ProposalSection{
			Heading:            "Our Proposal",
			Deliverables:       []Deliverable{},
			HiddenDeliverables: []Deliverable{},
			Packages:           []Package{},
		},
		Value: ValueSection{
			Heading: "The Value We Bring",
			Points:  []ValuePoint{},
		},
		Contact: ContactSection{
			Heading:      "Get in Touch",
			CallToAction: "Let's get started",
		},
		Shapes: Shapes{},
	}
}
