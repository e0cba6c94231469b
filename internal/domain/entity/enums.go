package entity

// Rubric is the funding programme family an article is filed under.
type Rubric string

const (
	RubricHorizon2020        Rubric = "Horizon2020"
	RubricOtherEUProgram     Rubric = "OtherEUProgram"
	RubricOtherInternational Rubric = "OtherInternational"
	RubricLMU                Rubric = "LMU"
	RubricBMBF               Rubric = "BMBF"
)

var rubricLabels = map[Rubric]string{
	RubricHorizon2020:        "Horizont 2020",
	RubricOtherEUProgram:     "EU-Programme: Sonstige",
	RubricOtherInternational: "Weitere Förderinstitutionen (int)",
	RubricLMU:                "LMU",
	RubricBMBF:               "Bundesministerium für Bildung und Forschung (BMBF)",
}

// IsValid reports whether r is a known rubric.
func (r Rubric) IsValid() bool {
	_, ok := rubricLabels[r]
	return ok
}

// Label returns the display name of the rubric.
func (r Rubric) Label() string {
	return rubricLabels[r]
}

// International reports whether the rubric covers non-national programmes.
func (r Rubric) International() bool {
	switch r {
	case RubricHorizon2020, RubricOtherEUProgram, RubricOtherInternational:
		return true
	default:
		return false
	}
}

// Priority orders articles by editorial importance.
type Priority string

const (
	PriorityVeryLow  Priority = "VeryLow"
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityVeryHigh Priority = "VeryHigh"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityVeryLow, PriorityLow, PriorityMedium, PriorityHigh, PriorityVeryHigh:
		return true
	default:
		return false
	}
}

// TargetGroup is the audience an announcement addresses.
type TargetGroup string

const (
	TargetGroupStudents     TargetGroup = "Students"
	TargetGroupDoctoral     TargetGroup = "Doctoral"
	TargetGroupPostdoc      TargetGroup = "Postdoc"
	TargetGroupProfessors   TargetGroup = "Professors"
	TargetGroupInstitutions TargetGroup = "Institutions"
)

// IsValid reports whether g is a known target group.
func (g TargetGroup) IsValid() bool {
	switch g {
	case TargetGroupStudents, TargetGroupDoctoral, TargetGroupPostdoc,
		TargetGroupProfessors, TargetGroupInstitutions:
		return true
	default:
		return false
	}
}

// SupportType describes what kind of funding is offered.
type SupportType string

const (
	SupportIndividualResearch  SupportType = "IndividualResearch"
	SupportResearchGroups      SupportType = "ResearchGroups"
	SupportScholarship         SupportType = "Scholarship"
	SupportPrice               SupportType = "Price"
	SupportTransferSpinOff     SupportType = "TransferSpinOff"
	SupportStructuralPromotion SupportType = "StructuralPromotion"
	SupportInfrastructure      SupportType = "Infrastructure"
	SupportMeeting             SupportType = "Meeting"
)

var supportTypeLabels = map[SupportType]string{
	SupportIndividualResearch:  "Individualförderung",
	SupportResearchGroups:      "Verbundförderung",
	SupportScholarship:         "Stipendium",
	SupportPrice:               "Preis",
	SupportTransferSpinOff:     "Transfer/Ausgründung",
	SupportStructuralPromotion: "Strukturierte Promotionsförderprogramme",
	SupportInfrastructure:      "Infrastruktur/Geräte",
	SupportMeeting:             "Tagungen/Konferenzen/Lehre",
}

// IsValid reports whether s is a known support type.
func (s SupportType) IsValid() bool {
	_, ok := supportTypeLabels[s]
	return ok
}

// Label returns the display name of the support type.
func (s SupportType) Label() string {
	return supportTypeLabels[s]
}

// Subject is the scientific field an announcement belongs to.
type Subject string

const (
	SubjectOpenProgram                    Subject = "OpenProgram"
	SubjectLifeSciences                   Subject = "LifeSciences"
	SubjectPhysicalSciencesAndEngineering Subject = "PhysicalSciencesAndEngineering"
	SubjectSocialSciencesAndHumanities    Subject = "SocialSciencesAndHumanities"
)

var subjectAcronyms = map[Subject]string{
	SubjectOpenProgram:                    "TP",
	SubjectLifeSciences:                   "LS",
	SubjectPhysicalSciencesAndEngineering: "PSE",
	SubjectSocialSciencesAndHumanities:    "SSH",
}

// IsValid reports whether s is a known subject.
func (s Subject) IsValid() bool {
	_, ok := subjectAcronyms[s]
	return ok
}

// Acronym returns the short code used in listings.
func (s Subject) Acronym() string {
	return subjectAcronyms[s]
}

// ArticleState is the editorial lifecycle state of an article.
type ArticleState string

const (
	StateDraft     ArticleState = "Draft"
	StatePublished ArticleState = "Published"
	StateArchived  ArticleState = "Archived"
)

// IsValid reports whether s is a known state.
func (s ArticleState) IsValid() bool {
	switch s {
	case StateDraft, StatePublished, StateArchived:
		return true
	default:
		return false
	}
}
