// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Relevance is the binary verdict the model gives for a paper.
type Relevance string

const (
	RelevanceRelated   Relevance = "Related"
	RelevanceUnrelated Relevance = "Unrelated"
)

// Section names one of the five summary sections the model must produce.
type Section string

const (
	SectionMotivation    Section = "MOTIVATION"
	SectionDifferences   Section = "DIFFERENCES"
	SectionContributions Section = "CONTRIBUTIONS"
	SectionMethod        Section = "METHOD"
	SectionResults       Section = "RESULTS"
)

// Sections lists the summary sections in the order the model emits them.
var Sections = []Section{
	SectionMotivation,
	SectionDifferences,
	SectionContributions,
	SectionMethod,
	SectionResults,
}

// NotAvailable is the placeholder for a section the model did not produce
// and for an abstract the source did not supply.
const NotAvailable = "N/A"

// Analysis is the structured summary and verdict attached to a paper.
type Analysis struct {
	// Relevance is Related when the model's verdict contains "yes".
	Relevance Relevance `json:"relevance" yaml:"relevance"`

	// Sections maps every entry of Sections to its bounded-length text.
	Sections map[Section]string `json:"sections" yaml:"sections"`

	// Model is the roster entry that produced the response.
	Model string `json:"model" yaml:"model"`
}

// Section returns the text for s, or NotAvailable if it is missing.
func (a *Analysis) Section(s Section) string {
	if a == nil {
		return NotAvailable
	}
	if v, ok := a.Sections[s]; ok && v != "" {
		return v
	}
	return NotAvailable
}
