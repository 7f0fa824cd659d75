package catalog

import "strings"

// Project levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Project types.
const (
	TypeTool          = "tool"
	TypeDocumentation = "documentation"
	TypeTraining      = "training"
	TypeVulnerableApp = "vulnerable-app"
	TypeStandard      = "standard"
	TypeProject       = "project"
)

// Project is one OWASP project in the recommendation catalog.
// Records are immutable once loaded; a refresh replaces the whole
// collection instead of patching records in place.
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Technologies []string `json:"technologies"`
	Missions     []string `json:"missions"`
	Level        string   `json:"level"`
	Type         string   `json:"type"`
	Tags         []string `json:"tags,omitempty"`
}

// HasTechnology reports whether the project carries the technology tag,
// case-insensitively.
func (p Project) HasTechnology(tech string) bool {
	return containsFold(p.Technologies, tech)
}

// HasMission reports whether the project carries the mission tag,
// case-insensitively.
func (p Project) HasMission(mission string) bool {
	return containsFold(p.Missions, mission)
}

func containsFold(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// DisplayName turns a project id like "www-project-juice-shop" into
// "Juice Shop".
func DisplayName(id string) string {
	name := strings.TrimPrefix(id, "www-project-")
	words := strings.Split(strings.ReplaceAll(name, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
