package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Link struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type PersonalInformation struct {
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Links    Link   `json:"links"`
}

type Skills struct {
	Languages   []string `json:"languages"`
	Frontend    []string `json:"frontend"`
	Backend     []string `json:"backend"`
	Databases   []string `json:"databases"`
	DevOpsInfra []string `json:"devops_infra"`
	Security    []string `json:"security"`
}

type Experience struct {
	Role             string   `json:"role"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Duration         string   `json:"duration"`
	Responsibilities []string `json:"responsibilities"`
	TechStack        []string `json:"tech_stack,omitempty"`
}

type Project struct {
	Name        string   `json:"name"`
	URL         string   `json:"url,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Description string   `json:"description,omitempty"`
	Details     []string `json:"details,omitempty"`
	Status      string   `json:"status,omitempty"`
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location"`
	GraduationYear string `json:"graduation_year"`
	GPA            string `json:"gpa,omitempty"`
}

type Certification struct {
	Name    string  `json:"name"`
	Band    float64 `json:"band,omitempty"`
	Details string  `json:"details,omitempty"`
	Issuer  string  `json:"issuer"`
	Year    int     `json:"year"`
}

type Resume struct {
	PersonalInformation PersonalInformation `json:"personal_information"`
	Summary             string              `json:"summary"`
	Skills              Skills              `json:"skills"`
	Experience          []Experience        `json:"experience"`
	Projects            []Project           `json:"projects"`
	Education           Education           `json:"education"`
	Certifications      []Certification     `json:"certifications"`
}

// LoadResumeText reads the resume document embedded in scoring prompts.
// JSON files are parsed as a Resume and rendered as plain text; anything
// else is used verbatim.
func LoadResumeText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return strings.TrimSpace(string(data)), nil
	}

	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("parse resume: %w", err)
	}
	return r.Text(), nil
}

// Text renders the parts of the resume that matter for title matching.
func (r Resume) Text() string {
	var b strings.Builder
	p := r.PersonalInformation
	fmt.Fprintf(&b, "%s - %s (%s)\n", p.FullName, p.JobTitle, p.Location)
	if r.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", r.Summary)
	}

	var skills []string
	for _, group := range [][]string{r.Skills.Languages, r.Skills.Backend, r.Skills.Frontend, r.Skills.Databases, r.Skills.DevOpsInfra, r.Skills.Security} {
		skills = append(skills, group...)
	}
	if len(skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(skills, ", "))
	}

	for _, e := range r.Experience {
		fmt.Fprintf(&b, "Experience: %s at %s (%s)\n", e.Role, e.Company, e.Duration)
	}
	for _, pr := range r.Projects {
		fmt.Fprintf(&b, "Project: %s\n", pr.Name)
	}
	if r.Education.Degree != "" {
		fmt.Fprintf(&b, "Education: %s, %s\n", r.Education.Degree, r.Education.Institution)
	}
	return strings.TrimSpace(b.String())
}
