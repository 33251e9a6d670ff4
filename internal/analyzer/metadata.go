package analyzer

import (
	"regexp"
	"strings"
)

const maxTitleLength = 100

var (
	gradeLevelRE = regexp.MustCompile(`(?i)\d+(st|nd|rd|th)? grade`)
	objectiveRE  = regexp.MustCompile(`(?i)(objective|goal|aim)s?:?\s*(.+)`)
)

// educationKeywords mark content as educational material.
var educationKeywords = []string{
	"lesson", "objective", "learning", "student", "grade", "curriculum",
	"assessment", "activity", "homework", "quiz", "test", "project",
}

// Enrichment holds heuristic metadata inferred from document text. Fields
// stay nil when nothing in the text matched.
type Enrichment struct {
	Title      *string
	Subject    *string
	GradeLevel *string
	Objectives []string
}

// Enrich scans text for a title, subject classification, grade level, and
// stated objectives. It is best effort and never fails.
func Enrich(text string) Enrichment {
	var e Enrichment

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		title := trimmed
		if len(title) > maxTitleLength {
			title = title[:maxTitleLength]
		}
		e.Title = &title
		break
	}

	lower := strings.ToLower(text)
	for _, keyword := range educationKeywords {
		if strings.Contains(lower, keyword) {
			subject := "Education"
			e.Subject = &subject
			break
		}
	}

	if match := gradeLevelRE.FindString(text); match != "" {
		e.GradeLevel = &match
	}

	for _, line := range strings.Split(text, "\n") {
		if m := objectiveRE.FindStringSubmatch(line); m != nil {
			if objective := strings.TrimSpace(m[2]); objective != "" {
				e.Objectives = append(e.Objectives, objective)
			}
		}
	}

	return e
}
