package catalog

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
)

const (
	owaspOrg      = "OWASP"
	projectPrefix = "www-project-"
)

// RepositoryLister is the subset of the GitHub client the fetcher needs.
type RepositoryLister interface {
	ListByOrg(ctx context.Context, org string, opts *gh.RepositoryListByOrgOptions) ([]*gh.Repository, *gh.Response, error)
}

// Fetcher rebuilds the catalog from the OWASP GitHub org by listing
// www-project-* repositories and enriching their descriptions through
// the keyword vocabulary.
type Fetcher struct {
	repos  RepositoryLister
	vocab  *Vocabulary
	logger zerolog.Logger
}

// NewFetcher creates a fetcher. An empty token uses unauthenticated
// requests (rate-limited by GitHub).
func NewFetcher(token string, vocab *Vocabulary, logger zerolog.Logger) *Fetcher {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Fetcher{
		repos:  client.Repositories,
		vocab:  vocab,
		logger: logger.With().Str("component", "catalog.fetcher").Logger(),
	}
}

// Fetch lists all www-project-* repositories and returns enriched records
// in repository order.
func (f *Fetcher) Fetch(ctx context.Context) ([]Project, error) {
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var projects []Project
	for {
		repos, resp, err := f.repos.ListByOrg(ctx, owaspOrg, opts)
		if err != nil {
			return nil, fmt.Errorf("listing %s repositories: %w", owaspOrg, err)
		}
		for _, repo := range repos {
			name := repo.GetName()
			if !strings.HasPrefix(strings.ToLower(name), projectPrefix) {
				continue
			}
			projects = append(projects, f.vocab.Enrich(
				strings.ToLower(name),
				repo.GetDescription(),
				repo.GetHTMLURL(),
			))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	f.logger.Info().Int("projects", len(projects)).Msg("fetched project repositories")
	return projects, nil
}
