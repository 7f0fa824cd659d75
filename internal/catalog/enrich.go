package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword maps used to derive technology, mission,
// level and type tags for catalog entries that only carry a description
// and URL (the legacy flat format).
type Vocabulary struct {
	Technologies map[string][]string `yaml:"technologies"`
	Missions     map[string][]string `yaml:"missions"`
	Beginner     []string            `yaml:"beginner"`
	Advanced     []string            `yaml:"advanced"`
	Fallback     []string            `yaml:"fallback"` // generic security words mapping to security-tool
}

// DefaultVocabulary returns the built-in keyword maps.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Technologies: map[string][]string{
			"python":          {"python", "pytm", "pygoat", "nettacker", "securetea"},
			"java":            {"java", "webgoat", "zap", "dependency-check", "benchmark"},
			"javascript":      {"javascript", "js", "node", "react", "juice-shop", "vue", "angular"},
			"go":              {"go", "golang"},
			"rust":            {"rust"},
			"ruby":            {"ruby", "rails"},
			"php":             {"php"},
			"dotnet":          {".net", "c#", "csharp", "dotnet"},
			"mobile":          {"android", "ios", "mobile", "igoat", "androgoat"},
			"cloud":           {"cloud", "aws", "azure", "gcp", "kubernetes", "docker", "serverless"},
			"web":             {"web", "html", "css", "frontend", "backend"},
			"devsecops":       {"devsecops", "pipeline", "cicd", "ci-cd"},
			"api":             {"api", "rest", "graphql"},
			"threat-modeling": {"threat", "dragon", "model"},
		},
		Missions: map[string][]string{
			"learning":       {"learn", "training", "education", "tutorial", "guide", "academy", "dojo", "shepherd"},
			"tool":           {"tool", "scanner", "analyzer", "framework", "library", "zap", "amass", "nettacker"},
			"documentation":  {"documentation", "docs", "guide", "handbook", "manual", "cheat-sheet", "testing-guide"},
			"vulnerable-app": {"vulnerable", "insecure", "goat", "juice", "dvwa", "dvsa"},
			"ctf":            {"ctf", "challenge", "hackademic", "game"},
			"testing":        {"testing", "test", "verification", "validation", "pentest"},
			"standard":       {"standard", "top-10", "top-ten", "verification", "maturity", "samm", "asvs"},
			"research":       {"research", "analysis", "study"},
			"security-tool":  {"security", "scanner", "detector", "audit", "analyzer"},
		},
		Beginner: []string{
			"beginner", "learning", "tutorial", "starter", "introduction", "basic",
			"juice", "webgoat", "training", "education", "guide",
		},
		Advanced: []string{
			"advanced", "expert", "enterprise", "framework", "professional",
			"production", "maturity", "verification-standard",
		},
		Fallback: []string{"scan", "detect", "protect", "security", "firewall"},
	}
}

// LoadVocabulary reads keyword overrides from a YAML file, falling back
// per-section to the defaults for anything the file leaves empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	v := &Vocabulary{}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	def := DefaultVocabulary()
	if len(v.Technologies) == 0 {
		v.Technologies = def.Technologies
	}
	if len(v.Missions) == 0 {
		v.Missions = def.Missions
	}
	if len(v.Beginner) == 0 {
		v.Beginner = def.Beginner
	}
	if len(v.Advanced) == 0 {
		v.Advanced = def.Advanced
	}
	if len(v.Fallback) == 0 {
		v.Fallback = def.Fallback
	}
	return v, nil
}

// Enrich builds a full Project record from a bare id/description/url
// triple by keyword-matching the vocabulary against the id and
// description text.
func (v *Vocabulary) Enrich(id, description, url string) Project {
	text := strings.ToLower(id + " " + description)

	var technologies []string
	for _, tech := range sortedKeys(v.Technologies) {
		if anyKeyword(text, v.Technologies[tech]) {
			technologies = append(technologies, tech)
		}
	}

	var missions []string
	for _, mission := range sortedKeys(v.Missions) {
		if anyKeyword(text, v.Missions[mission]) {
			missions = append(missions, mission)
		}
	}
	if len(missions) == 0 && anyKeyword(text, v.Fallback) {
		missions = append(missions, "security-tool")
	}

	tags := make([]string, 0, len(technologies)+len(missions))
	tags = append(tags, technologies...)
	tags = append(tags, missions...)

	return Project{
		ID:           id,
		Name:         DisplayName(id),
		Description:  description,
		URL:          url,
		Technologies: technologies,
		Missions:     missions,
		Level:        v.level(text),
		Type:         deriveType(text, missions),
		Tags:         tags,
	}
}

func (v *Vocabulary) level(text string) string {
	if anyKeyword(text, v.Beginner) {
		return LevelBeginner
	}
	if anyKeyword(text, v.Advanced) {
		return LevelAdvanced
	}
	return LevelIntermediate
}

// deriveType maps missions onto one project type; mission categories take
// precedence over raw text patterns.
func deriveType(text string, missions []string) string {
	has := func(m string) bool {
		for _, x := range missions {
			if x == m {
				return true
			}
		}
		return false
	}

	switch {
	case has("vulnerable-app") || has("ctf"):
		return TypeVulnerableApp
	case has("tool") || has("security-tool"):
		return TypeTool
	case has("documentation"):
		return TypeDocumentation
	case has("standard"):
		return TypeStandard
	case has("learning"):
		return TypeTraining
	}

	switch {
	case anyKeyword(text, []string{"guide", "handbook", "documentation"}):
		return TypeDocumentation
	case anyKeyword(text, []string{"tool", "scanner", "framework"}):
		return TypeTool
	case anyKeyword(text, []string{"training", "learning", "tutorial"}):
		return TypeTraining
	}
	return TypeProject
}

func anyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// sortedKeys keeps enrichment deterministic regardless of map iteration order.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
