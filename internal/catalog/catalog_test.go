package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProjects() []Project {
	return []Project{
		{
			ID:           "www-project-juice-shop",
			Description:  "Probably the most modern and sophisticated insecure web application",
			URL:          "https://owasp.org/www-project-juice-shop/",
			Technologies: []string{"javascript", "web"},
			Missions:     []string{"learning", "vulnerable-app"},
			Level:        LevelBeginner,
			Type:         TypeVulnerableApp,
		},
		{
			ID:           "www-project-zap",
			Description:  "The world's most widely used web app scanner",
			URL:          "https://owasp.org/www-project-zap/",
			Technologies: []string{"java"},
			Missions:     []string{"tool"},
			Level:        LevelIntermediate,
			Type:         TypeTool,
		},
		{
			ID:           "www-project-top-ten",
			Description:  "Standard awareness document for web application security",
			URL:          "https://owasp.org/www-project-top-ten/",
			Technologies: []string{"web"},
			Missions:     []string{"documentation", "standard"},
			Level:        LevelAdvanced,
			Type:         TypeStandard,
		},
	}
}

func TestFilters(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())

	byTech := c.ByTechnology("JavaScript")
	require.Len(t, byTech, 1)
	assert.Equal(t, "www-project-juice-shop", byTech[0].ID)

	byMission := c.ByMission("tool")
	require.Len(t, byMission, 1)
	assert.Equal(t, "www-project-zap", byMission[0].ID)

	byLevel := c.ByLevel("beginner")
	require.Len(t, byLevel, 1)
	assert.Equal(t, "www-project-juice-shop", byLevel[0].ID)

	byType := c.ByType("standard")
	require.Len(t, byType, 1)
	assert.Equal(t, "www-project-top-ten", byType[0].ID)
}

func TestFiltersUnknownValueYieldsEmpty(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())

	assert.Empty(t, c.ByTechnology("cobol"))
	assert.Empty(t, c.ByMission("does-not-exist"))
	assert.Empty(t, c.ByLevel("wizard"))
	assert.Empty(t, c.ByType("mystery"))
}

func TestSearchKeyword(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())

	hits := c.SearchKeyword("SCANNER")
	require.Len(t, hits, 1)
	assert.Equal(t, "www-project-zap", hits[0].ID)

	assert.Empty(t, c.SearchKeyword("mainframe"))
}

func TestFiltersPreserveCatalogOrder(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())

	web := c.ByTechnology("web")
	require.Len(t, web, 2)
	assert.Equal(t, "www-project-juice-shop", web[0].ID)
	assert.Equal(t, "www-project-top-ten", web[1].ID)
}

func TestNormalizeDefaults(t *testing.T) {
	c := New([]Project{{ID: "www-project-example-tool", Description: "a scanner", Missions: []string{"tool"}}}, zerolog.Nop())

	p := c.Projects()[0]
	assert.Equal(t, "Example Tool", p.Name)
	assert.Equal(t, LevelIntermediate, p.Level)
	assert.Equal(t, TypeTool, p.Type)
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())
	require.Equal(t, 3, c.Len())

	c.Replace([]Project{{ID: "www-project-amass"}})
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("www-project-juice-shop")
	assert.False(t, ok)
}

func TestGet(t *testing.T) {
	c := New(testProjects(), zerolog.Nop())

	p, ok := c.Get("WWW-PROJECT-ZAP")
	require.True(t, ok)
	assert.Equal(t, "Zap", p.Name)

	_, ok = c.Get("www-project-nope")
	assert.False(t, ok)
}

func TestLoadMissingFileDegradesToEmpty(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.json"), nil, zerolog.Nop())
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.ByTechnology("python"))
}

func TestLoadMalformedFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := Load(path, nil, zerolog.Nop())
	assert.Equal(t, 0, c.Len())
}

func TestLoadFlatFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	data := `{
		"www-project-juice-shop": ["insecure web app for learning", "https://x/juice-shop"],
		"www-project-zap": ["security scanner", "https://x/zap"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c := Load(path, nil, zerolog.Nop())
	require.Equal(t, 2, c.Len())

	juice, ok := c.Get("www-project-juice-shop")
	require.True(t, ok)
	assert.Equal(t, "Juice Shop", juice.Name)
	assert.Equal(t, "https://x/juice-shop", juice.URL)
	assert.True(t, juice.HasTechnology("javascript"))
	assert.True(t, juice.HasMission("learning"))
	assert.Equal(t, LevelBeginner, juice.Level)

	zap, ok := c.Get("www-project-zap")
	require.True(t, ok)
	assert.True(t, zap.HasMission("security-tool"))
	assert.False(t, zap.HasTechnology("javascript"))
}

func TestLoadEnrichedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects_metadata.json")
	data := `{
		"projects": [
			{"id": "www-project-pytm", "description": "pythonic threat modeling", "url": "https://x/pytm",
			 "technologies": ["python"], "missions": ["tool"], "level": "intermediate", "type": "tool"}
		],
		"technologies": ["python"],
		"missions": ["tool"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c := Load(path, nil, zerolog.Nop())
	require.Equal(t, 1, c.Len())
	assert.Equal(t, []Project{c.Projects()[0]}, c.ByTechnology("python"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Juice Shop", DisplayName("www-project-juice-shop"))
	assert.Equal(t, "Top Ten", DisplayName("www-project-top-ten"))
	assert.Equal(t, "Zap", DisplayName("zap"))
}
