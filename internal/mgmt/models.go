package mgmt

// ProblemDetail is an RFC 7807 Problem Detail error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// RefreshRequest selects the catalog refresh source.
type RefreshRequest struct {
	Source string `json:"source"` // "github" or "disk"
}

// RefreshResponse reports the outcome of a catalog refresh.
type RefreshResponse struct {
	Source   string `json:"source"`
	Projects int    `json:"projects"`
}

// SessionStats summarizes the live conversation sessions.
type SessionStats struct {
	Active int `json:"active"`
	Pruned int `json:"pruned"`
}

// ConfigResponse exposes the effective runtime configuration.
type ConfigResponse struct {
	Environment     string `json:"environment"`
	LogLevel        string `json:"log_level"`
	CatalogPath     string `json:"catalog_path"`
	CatalogProjects int    `json:"catalog_projects"`
	SessionCapacity int    `json:"session_capacity"`
	SessionTTL      string `json:"session_ttl"`
	StrictFilters   bool   `json:"strict_filters"`
}
