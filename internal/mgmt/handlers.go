package mgmt

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/health"
)

// ProjectFetcher rebuilds the catalog from a remote source.
type ProjectFetcher interface {
	Fetch(ctx context.Context) ([]catalog.Project, error)
}

// SessionStater exposes session counts for the stats endpoint.
type SessionStater interface {
	Len() int
	Prune() int
}

// RuntimeConfig holds the effective configuration reported by /config.
type RuntimeConfig struct {
	Environment     string
	LogLevel        string
	CatalogPath     string
	SessionCapacity int
	SessionTTL      time.Duration
	StrictFilters   bool
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	catalog  *catalog.Catalog
	vocab    *catalog.Vocabulary
	fetcher  ProjectFetcher
	sessions SessionStater
	checker  *health.Checker
	rtCfg    RuntimeConfig
	logger   zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	cat *catalog.Catalog,
	vocab *catalog.Vocabulary,
	fetcher ProjectFetcher,
	sessions SessionStater,
	checker *health.Checker,
	rtCfg RuntimeConfig,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		catalog:  cat,
		vocab:    vocab,
		fetcher:  fetcher,
		sessions: sessions,
		checker:  checker,
		rtCfg:    rtCfg,
		logger:   logger.With().Str("component", "mgmt.handlers").Logger(),
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	for _, s := range results {
		if s == health.StatusDown {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": results,
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": results})
}

// ListProjects handles GET /api/v1/projects with optional filters.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects := h.catalog.Projects()

	if tech := c.Query("technology"); tech != "" {
		projects = h.catalog.ByTechnology(tech)
	} else if mission := c.Query("mission"); mission != "" {
		projects = h.catalog.ByMission(mission)
	} else if q := c.Query("q"); q != "" {
		projects = h.catalog.SearchKeyword(q)
	}

	if level := c.Query("level"); level != "" {
		projects = filterBy(projects, func(p catalog.Project) bool {
			return strings.EqualFold(p.Level, level)
		})
	}
	if pt := c.Query("type"); pt != "" {
		projects = filterBy(projects, func(p catalog.Project) bool {
			return strings.EqualFold(p.Type, pt)
		})
	}

	return c.JSON(fiber.Map{"projects": projects, "count": len(projects)})
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	p, ok := h.catalog.Get(id)
	if !ok {
		p, ok = h.catalog.Get("www-project-" + id)
	}
	if !ok {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"No project with id "+id)
	}
	return c.JSON(p)
}

// RefreshCatalog handles POST /api/v1/catalog/refresh. Source "github"
// rebuilds from the OWASP org; "disk" (the default) reloads the catalog
// file. Either way the snapshot is swapped atomically.
func (h *Handlers) RefreshCatalog(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}
	if req.Source == "" {
		req.Source = "disk"
	}

	var projects []catalog.Project
	switch req.Source {
	case "github":
		if h.fetcher == nil {
			return problemResponse(c, fiber.StatusServiceUnavailable,
				"fetcher_unavailable", "Service Unavailable",
				"GitHub fetcher is not configured")
		}
		fetched, err := h.fetcher.Fetch(c.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("catalog fetch failed")
			return problemResponse(c, fiber.StatusBadGateway,
				"fetch_failed", "Bad Gateway",
				"Fetching projects failed: "+err.Error())
		}
		projects = fetched

	case "disk":
		data, err := os.ReadFile(h.rtCfg.CatalogPath)
		if err != nil {
			return problemResponse(c, fiber.StatusUnprocessableEntity,
				"catalog_unreadable", "Unprocessable Entity",
				"Reading catalog file failed: "+err.Error())
		}
		parsed, err := catalog.Parse(data, h.vocab)
		if err != nil {
			return problemResponse(c, fiber.StatusUnprocessableEntity,
				"catalog_malformed", "Unprocessable Entity",
				"Parsing catalog file failed: "+err.Error())
		}
		projects = parsed

	default:
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_source", "Bad Request",
			"Source must be \"github\" or \"disk\"")
	}

	h.catalog.Replace(projects)
	h.logger.Info().
		Str("source", req.Source).
		Int("projects", len(projects)).
		Msg("catalog refreshed")

	return c.JSON(RefreshResponse{Source: req.Source, Projects: len(projects)})
}

// SessionStatsHandler handles GET /api/v1/sessions/stats. Stats runs a
// prune first so the reported count reflects only live sessions.
func (h *Handlers) SessionStatsHandler(c *fiber.Ctx) error {
	pruned := h.sessions.Prune()
	return c.JSON(SessionStats{Active: h.sessions.Len(), Pruned: pruned})
}

// GetConfig handles GET /api/v1/config.
func (h *Handlers) GetConfig(c *fiber.Ctx) error {
	return c.JSON(ConfigResponse{
		Environment:     h.rtCfg.Environment,
		LogLevel:        h.rtCfg.LogLevel,
		CatalogPath:     h.rtCfg.CatalogPath,
		CatalogProjects: h.catalog.Len(),
		SessionCapacity: h.rtCfg.SessionCapacity,
		SessionTTL:      h.rtCfg.SessionTTL.String(),
		StrictFilters:   h.rtCfg.StrictFilters,
	})
}

func filterBy(projects []catalog.Project, keep func(catalog.Project) bool) []catalog.Project {
	out := make([]catalog.Project, 0, len(projects))
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
