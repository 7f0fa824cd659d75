// Package catalog loads and queries the in-memory OWASP project catalog.
package catalog

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Catalog holds an immutable-per-load snapshot of project records and
// exposes read-only query primitives. Refresh swaps the whole snapshot
// under the lock so in-flight queries never observe a half-updated
// collection.
type Catalog struct {
	mu       sync.RWMutex
	projects []Project
	logger   zerolog.Logger
}

// metadataFile is the enriched on-disk format produced by the fetcher.
type metadataFile struct {
	Projects     []Project `json:"projects"`
	Technologies []string  `json:"technologies"`
	Missions     []string  `json:"missions"`
	Levels       []string  `json:"levels"`
	Types        []string  `json:"types"`
}

// New creates a catalog over an already-built record set.
func New(projects []Project, logger zerolog.Logger) *Catalog {
	return &Catalog{
		projects: normalize(projects),
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// Load reads the catalog from a JSON file. Two formats are accepted: the
// enriched metadata format ({"projects": [...]}), and the legacy flat map
// (id -> [description, url]) which is enriched through the vocabulary.
// A missing or malformed file degrades to an empty catalog — recommendation
// calls then return empty or fallback results instead of failing.
func Load(path string, vocab *Vocabulary, logger zerolog.Logger) *Catalog {
	c := New(nil, logger)

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("catalog file unavailable, starting empty")
		return c
	}

	projects, err := Parse(data, vocab)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("catalog file malformed, starting empty")
		return c
	}

	c.projects = normalize(projects)
	c.logger.Info().Int("projects", len(c.projects)).Str("path", path).Msg("catalog loaded")
	return c
}

// Parse decodes catalog JSON in either supported format.
func Parse(data []byte, vocab *Vocabulary) ([]Project, error) {
	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err == nil && len(meta.Projects) > 0 {
		return meta.Projects, nil
	}

	var flat map[string][]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, err
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}

	// Deterministic catalog order for the flat format.
	ids := make([]string, 0, len(flat))
	for id := range flat {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	projects := make([]Project, 0, len(flat))
	for _, id := range ids {
		entry := flat[id]
		description := ""
		url := ""
		if len(entry) > 0 {
			description = entry[0]
		}
		if len(entry) > 1 {
			url = entry[1]
		}
		projects = append(projects, vocab.Enrich(id, description, url))
	}
	return projects, nil
}

// Replace atomically swaps in a new record set.
func (c *Catalog) Replace(projects []Project) {
	normalized := normalize(projects)
	c.mu.Lock()
	c.projects = normalized
	c.mu.Unlock()
	c.logger.Info().Int("projects", len(normalized)).Msg("catalog replaced")
}

// Projects returns the current snapshot. Callers must not mutate it.
func (c *Catalog) Projects() []Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projects
}

// Len returns the number of records in the current snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.projects)
}

// Get returns the record with the given id, if present.
func (c *Catalog) Get(id string) (Project, bool) {
	for _, p := range c.Projects() {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Project{}, false
}

// ByTechnology returns records tagged with the technology, in catalog
// order. Unknown technologies yield an empty list.
func (c *Catalog) ByTechnology(tech string) []Project {
	return c.filter(func(p Project) bool { return p.HasTechnology(tech) })
}

// ByMission returns records tagged with the mission, in catalog order.
func (c *Catalog) ByMission(mission string) []Project {
	return c.filter(func(p Project) bool { return p.HasMission(mission) })
}

// ByLevel returns records with the exact difficulty level.
func (c *Catalog) ByLevel(level string) []Project {
	return c.filter(func(p Project) bool { return strings.EqualFold(p.Level, level) })
}

// ByType returns records with the exact project type.
func (c *Catalog) ByType(projectType string) []Project {
	return c.filter(func(p Project) bool { return strings.EqualFold(p.Type, projectType) })
}

// SearchKeyword returns records whose name or description contains the
// keyword, case-insensitively.
func (c *Catalog) SearchKeyword(keyword string) []Project {
	kw := strings.ToLower(keyword)
	return c.filter(func(p Project) bool {
		return strings.Contains(strings.ToLower(p.Name), kw) ||
			strings.Contains(strings.ToLower(p.Description), kw)
	})
}

func (c *Catalog) filter(keep func(Project) bool) []Project {
	snapshot := c.Projects()
	var out []Project
	for _, p := range snapshot {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// normalize fills derivable fields so every record satisfies the schema:
// name from id, level defaulting to intermediate, type derived from
// missions when absent.
func normalize(projects []Project) []Project {
	out := make([]Project, len(projects))
	for i, p := range projects {
		if p.Name == "" {
			p.Name = DisplayName(p.ID)
		}
		if p.Level == "" {
			p.Level = LevelIntermediate
		}
		if p.Type == "" {
			p.Type = deriveType(strings.ToLower(p.ID+" "+p.Description), p.Missions)
		}
		out[i] = p
	}
	return out
}
