package structuredefinition

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// StructureDefinitionService resolves profile documents, preferring local copies over the network.
type StructureDefinitionService struct {
	repo   *StructureDefinitionRepository
	remote Fetcher
	log    zerolog.Logger
}

// NewStructureDefinitionService creates a new StructureDefinitionService. Either source may be nil.
func NewStructureDefinitionService(repo *StructureDefinitionRepository, remote Fetcher, log zerolog.Logger) *StructureDefinitionService {
	return &StructureDefinitionService{
		repo:   repo,
		remote: remote,
		log:    log,
	}
}

// Fetch implements Fetcher.
func (svc *StructureDefinitionService) Fetch(ctx context.Context, url string) (*Definition, error) {
	if svc.repo != nil {
		definition, err := svc.repo.GetStructureDefinition(url)
		if err == nil {
			svc.log.Debug().Str("url", url).Msg("Resolved StructureDefinition from local repository")
			return definition, nil
		}
	}
	if svc.remote == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return svc.remote.Fetch(ctx, url)
}

// Cache memoizes fetch results by URL for the lifetime of one conversion.
// A profile referenced by several elements is retrieved once.
type Cache struct {
	next    Fetcher
	mutex   sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	definition *Definition
	err        error
}

// NewCache wraps a Fetcher.
func NewCache(next Fetcher) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch implements Fetcher. Failures are remembered too, except cancellations.
func (c *Cache) Fetch(ctx context.Context, url string) (*Definition, error) {
	c.mutex.Lock()
	entry, ok := c.entries[url]
	c.mutex.Unlock()
	if ok {
		return entry.definition, entry.err
	}

	definition, err := c.next.Fetch(ctx, url)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	c.mutex.Lock()
	c.entries[url] = cacheEntry{definition: definition, err: err}
	c.mutex.Unlock()
	return definition, err
}
