package structuredefinition

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureDefinitionService_Fetch(t *testing.T) {
	local := &Definition{ResourceType: ResourceType, URL: "http://example.org/local"}
	remote := &Definition{ResourceType: ResourceType, URL: "http://example.org/remote"}

	repo := NewStructureDefinitionRepository(zerolog.Nop())
	repo.Add(local, "StructureDefinition-local.json")

	var remoteCalls []string
	svc := NewStructureDefinitionService(repo, FetcherFunc(func(_ context.Context, url string) (*Definition, error) {
		remoteCalls = append(remoteCalls, url)
		return remote, nil
	}), zerolog.Nop())

	definition, err := svc.Fetch(context.Background(), "https://build.fhir.org/ig/x/StructureDefinition-local.json")
	require.NoError(t, err)
	assert.Same(t, local, definition)
	assert.Empty(t, remoteCalls)

	definition, err = svc.Fetch(context.Background(), "http://example.org/other.json")
	require.NoError(t, err)
	assert.Same(t, remote, definition)
	assert.Equal(t, []string{"http://example.org/other.json"}, remoteCalls)
}

func TestStructureDefinitionService_FetchWithoutRemote(t *testing.T) {
	svc := NewStructureDefinitionService(nil, nil, zerolog.Nop())
	_, err := svc.Fetch(context.Background(), "http://example.org/other.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache(t *testing.T) {
	calls := map[string]int{}
	failure := errors.New("boom")
	cache := NewCache(FetcherFunc(func(_ context.Context, url string) (*Definition, error) {
		calls[url]++
		if url == "bad" {
			return nil, failure
		}
		return &Definition{ResourceType: ResourceType, URL: url}, nil
	}))

	first, err := cache.Fetch(context.Background(), "good")
	require.NoError(t, err)
	second, err := cache.Fetch(context.Background(), "good")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = cache.Fetch(context.Background(), "bad")
	assert.ErrorIs(t, err, failure)
	_, err = cache.Fetch(context.Background(), "bad")
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, map[string]int{"good": 1, "bad": 1}, calls)
}

func TestCache_DoesNotRememberCancellation(t *testing.T) {
	calls := 0
	cache := NewCache(FetcherFunc(func(ctx context.Context, url string) (*Definition, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Definition{ResourceType: ResourceType}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Fetch(ctx, "url")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = cache.Fetch(context.Background(), "url")
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
