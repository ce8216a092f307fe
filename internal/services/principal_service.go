package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/BusselW/DDH3/internal/lists"
	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

const (
	// MinPrincipalQueryLength is the shortest query sent to the directory.
	MinPrincipalQueryLength = 3
	// PrincipalSearchLimit caps the number of principals per search.
	PrincipalSearchLimit = 20

	DefaultPrincipalCacheSize = 256
	DefaultPrincipalCacheTTL  = time.Minute
)

// PrincipalService searches the backend user directory for the people
// pickers of the admin forms.
type PrincipalService interface {
	// Search returns an empty slice without calling the directory when the
	// trimmed query is shorter than MinPrincipalQueryLength runes.
	Search(ctx context.Context, query string) ([]models.Principal, error)
}

type principalService struct {
	directory lists.PrincipalDirectory
	cache     *expirable.LRU[string, []models.Principal]
	log       *logger.Logger
}

// NewPrincipalService creates a PrincipalService memoizing results per
// lowercased query. Non-positive size or ttl take the defaults.
func NewPrincipalService(directory lists.PrincipalDirectory, size int, ttl time.Duration, log *logger.Logger) PrincipalService {
	if size <= 0 {
		size = DefaultPrincipalCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultPrincipalCacheTTL
	}
	return &principalService{
		directory: directory,
		cache:     expirable.NewLRU[string, []models.Principal](size, nil, ttl),
		log:       log.Component("principals"),
	}
}

func (s *principalService) Search(ctx context.Context, query string) ([]models.Principal, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinPrincipalQueryLength {
		return []models.Principal{}, nil
	}

	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	principals, err := s.directory.SearchPrincipals(ctx, query, PrincipalSearchLimit)
	if err != nil {
		s.log.Error("Principal search failed", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}
	s.cache.Add(key, principals)
	return principals, nil
}
