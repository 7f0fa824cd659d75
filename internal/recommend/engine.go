// Package recommend ranks catalog projects against user preferences.
//
// The scorer is strictly additive over independent integer signals:
// adding a new bonus can only raise a record's rank, never invert the
// established order of records the bonus does not apply to. No floating
// point, no randomness — results are deterministic for a given catalog
// and preference set.
package recommend

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/owasp-blt/lettuce/internal/catalog"
)

// Scoring weights.
const (
	baseScore         = 10
	technologyBonus   = 50
	missionBonus      = 50
	levelBonus        = 30
	typeBonus         = 20
	beginnerCombo     = 15
	descriptionBonus  = 10
	versatilityWeight = 2

	// DefaultLimit caps result counts when the caller does not choose one.
	DefaultLimit = 3

	descriptionMinLen = 50
)

// contributionTypes maps a contribution choice from the mission flow onto
// a project type. Choices without a mapping (e.g. "design") impose no
// type preference.
var contributionTypes = map[string]string{
	"code":          catalog.TypeTool,
	"documentation": catalog.TypeDocumentation,
	"research":      catalog.TypeStandard,
	"training":      catalog.TypeTraining,
}

// Preferences is one recommendation query.
type Preferences struct {
	Technology string
	Mission    string
	Level      string
	Type       string
}

// Scored pairs a project with its additive relevance score.
type Scored struct {
	Project catalog.Project
	Score   int
}

// Config controls engine semantics.
type Config struct {
	// StrictFilters makes level and project type hard filters in the
	// technology flow (and the mapped contribution type in the mission
	// flow) instead of scoring bonuses.
	StrictFilters bool
}

// Engine is the recommendation engine over a project catalog.
type Engine struct {
	catalog *catalog.Catalog
	cfg     Config
	logger  zerolog.Logger
}

// New creates an engine over the given catalog.
func New(cat *catalog.Catalog, cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		catalog: cat,
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
}

// Rank scores candidates against the preferences and returns them in
// descending score order. The sort is stable: ties keep catalog order.
func (e *Engine) Rank(candidates []catalog.Project, prefs Preferences) []Scored {
	scored := make([]Scored, len(candidates))
	for i, p := range candidates {
		scored[i] = Scored{Project: p, Score: score(p, prefs)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func score(p catalog.Project, prefs Preferences) int {
	s := baseScore

	if prefs.Technology != "" && p.HasTechnology(prefs.Technology) {
		s += technologyBonus
	}
	if prefs.Mission != "" && p.HasMission(prefs.Mission) {
		s += missionBonus
	}
	if prefs.Level != "" && strings.EqualFold(p.Level, prefs.Level) {
		s += levelBonus
	}
	if prefs.Type != "" && strings.EqualFold(p.Type, prefs.Type) {
		s += typeBonus
	}
	if p.HasMission("learning") && p.Level == catalog.LevelBeginner {
		s += beginnerCombo
	}
	if len(p.Description) > descriptionMinLen {
		s += descriptionBonus
	}
	s += versatilityWeight * len(p.Technologies)
	s += versatilityWeight * len(p.Missions)

	return s
}

// ByTechnology recommends projects for the technology flow. Technology is
// a hard filter; level and project type are scoring bonuses unless the
// engine runs with StrictFilters. A limit of 0 returns all matches.
func (e *Engine) ByTechnology(technology, level, projectType string, limit int) []catalog.Project {
	if technology == "" {
		// Contract violation in the caller; degrade to a fallback query
		// rather than failing the user.
		return e.Fallback(limit)
	}

	candidates := e.catalog.ByTechnology(technology)
	if e.cfg.StrictFilters {
		candidates = filterLevel(candidates, level)
		candidates = filterType(candidates, projectType)
	}

	prefs := Preferences{Technology: technology, Level: level, Type: projectType}
	ranked := e.Rank(candidates, prefs)

	e.logger.Debug().
		Str("technology", technology).
		Str("level", level).
		Str("type", projectType).
		Int("candidates", len(candidates)).
		Msg("technology recommendation")

	return top(ranked, limit)
}

// ByMission recommends projects for the mission flow. Mission is a hard
// filter; the contribution type maps onto a project type used as a
// scoring bonus (or hard filter under StrictFilters).
func (e *Engine) ByMission(mission, contributionType string, limit int) []catalog.Project {
	if mission == "" {
		return e.Fallback(limit)
	}

	candidates := e.catalog.ByMission(mission)
	mappedType := contributionTypes[strings.ToLower(contributionType)]
	if e.cfg.StrictFilters {
		candidates = filterType(candidates, mappedType)
	}

	prefs := Preferences{Mission: mission, Type: mappedType}
	ranked := e.Rank(candidates, prefs)

	e.logger.Debug().
		Str("mission", mission).
		Str("contribution", contributionType).
		Int("candidates", len(candidates)).
		Msg("mission recommendation")

	return top(ranked, limit)
}

// Fallback returns popular beginner-friendly projects for queries that
// matched nothing. It never returns an empty list while the catalog has
// records.
func (e *Engine) Fallback(limit int) []catalog.Project {
	var candidates []catalog.Project
	seen := make(map[string]bool)

	add := func(projects []catalog.Project) {
		for _, p := range projects {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			candidates = append(candidates, p)
		}
	}

	for _, p := range e.catalog.ByLevel(catalog.LevelBeginner) {
		if p.HasMission("learning") {
			add([]catalog.Project{p})
		}
	}
	add(e.catalog.ByType(catalog.TypeVulnerableApp))

	// A catalog with neither beginner-learning nor vulnerable-app records
	// still owes the user something actionable.
	if len(candidates) == 0 {
		add(e.catalog.Projects())
	}

	prefs := Preferences{Mission: "learning", Level: catalog.LevelBeginner}
	return top(e.Rank(candidates, prefs), limit)
}

func filterLevel(projects []catalog.Project, level string) []catalog.Project {
	if level == "" {
		return projects
	}
	var out []catalog.Project
	for _, p := range projects {
		if strings.EqualFold(p.Level, level) {
			out = append(out, p)
		}
	}
	return out
}

func filterType(projects []catalog.Project, projectType string) []catalog.Project {
	if projectType == "" {
		return projects
	}
	var out []catalog.Project
	for _, p := range projects {
		if strings.EqualFold(p.Type, projectType) {
			out = append(out, p)
		}
	}
	return out
}

func top(ranked []Scored, limit int) []catalog.Project {
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	out := make([]catalog.Project, len(ranked))
	for i, s := range ranked {
		out[i] = s.Project
	}
	return out
}
