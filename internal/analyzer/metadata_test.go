package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

func TestEnrichTitle(t *testing.T) {
	e := Enrich("\n\n  Introduction to Fractions  \n\nBody text follows here.")

	if e.Title == nil {
		t.Fatal("expected a title")
	}
	if *e.Title != "Introduction to Fractions" {
		t.Errorf("Title = %q, want %q", *e.Title, "Introduction to Fractions")
	}
}

func TestEnrichTitleTruncated(t *testing.T) {
	longLine := strings.Repeat("x", 150)
	e := Enrich(longLine + "\nsecond line")

	if e.Title == nil {
		t.Fatal("expected a title")
	}
	if len(*e.Title) != 100 {
		t.Errorf("Title length = %d, want 100", len(*e.Title))
	}
}

func TestEnrichTitleEmpty(t *testing.T) {
	e := Enrich("   \n\n\t\n")
	if e.Title != nil {
		t.Errorf("Title = %q, want nil", *e.Title)
	}
}

func TestEnrichSubject(t *testing.T) {
	e := Enrich("Students will complete the homework before Friday.")
	if e.Subject == nil || *e.Subject != "Education" {
		t.Errorf("Subject = %v, want Education", e.Subject)
	}

	e = Enrich("Quarterly revenue rose by four percent.")
	if e.Subject != nil {
		t.Errorf("Subject = %q, want nil", *e.Subject)
	}
}

func TestEnrichGradeLevel(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"This unit targets 3rd grade classrooms.", "3rd grade"},
		{"Designed for 11th Grade biology.", "11th Grade"},
		{"Suitable for 2 grade readers.", "2 grade"},
	}

	for _, tt := range tests {
		e := Enrich(tt.text)
		if e.GradeLevel == nil {
			t.Errorf("Enrich(%q) GradeLevel = nil, want %q", tt.text, tt.want)
			continue
		}
		if *e.GradeLevel != tt.want {
			t.Errorf("Enrich(%q) GradeLevel = %q, want %q", tt.text, *e.GradeLevel, tt.want)
		}
	}

	if e := Enrich("No target audience stated."); e.GradeLevel != nil {
		t.Errorf("GradeLevel = %q, want nil", *e.GradeLevel)
	}
}

func TestEnrichObjectives(t *testing.T) {
	text := strings.Join([]string{
		"Fractions Unit",
		"Objective: Add fractions with unlike denominators",
		"Some body text.",
		"Goals: Build number sense",
		"Learning aim: Compare fraction sizes",
	}, "\n")

	e := Enrich(text)

	want := []string{
		"Add fractions with unlike denominators",
		"Build number sense",
		"Compare fraction sizes",
	}
	if !reflect.DeepEqual(e.Objectives, want) {
		t.Errorf("Objectives = %v, want %v", e.Objectives, want)
	}
}

func TestEnrichNoObjectives(t *testing.T) {
	e := Enrich("Plain prose with nothing labeled.")
	if len(e.Objectives) != 0 {
		t.Errorf("Objectives = %v, want none", e.Objectives)
	}
}
