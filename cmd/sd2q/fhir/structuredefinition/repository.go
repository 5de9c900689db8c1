package structuredefinition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when no StructureDefinition is known for a URL.
var ErrNotFound = errors.New("StructureDefinition not found")

// StructureDefinitionRepository holds StructureDefinitions loaded from disk,
// addressable by canonical URL and by file name.
type StructureDefinitionRepository struct {
	log                     zerolog.Logger
	structureDefinitionsMap map[string]*Definition
}

// NewStructureDefinitionRepository creates a new StructureDefinitionRepository.
func NewStructureDefinitionRepository(log zerolog.Logger) *StructureDefinitionRepository {
	return &StructureDefinitionRepository{
		log:                     log,
		structureDefinitionsMap: make(map[string]*Definition),
	}
}

// LoadStructureDefinitions loads all StructureDefinitions in a directory into the repository.
// JSON files holding other resource types are skipped.
func (repo *StructureDefinitionRepository) LoadStructureDefinitions(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read StructureDefinitions directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		filePath := filepath.Join(dir, file.Name())
		definition, err := ReadFHIRResource[*Definition](filePath, Decode)
		if err != nil {
			return fmt.Errorf("failed to read StructureDefinition from file: %w", err)
		}
		if !definition.IsStructureDefinition() {
			repo.log.Debug().Str("file", file.Name()).Str("resourceType", definition.ResourceType).Msg("Skipping non-StructureDefinition resource")
			continue
		}
		repo.Add(definition, file.Name())
		repo.log.Debug().Str("structureDefinition", file.Name()).Str("url", definition.URL).Msg("Loaded StructureDefinition")
	}

	return nil
}

// Add registers a definition under its canonical URL and any extra keys.
func (repo *StructureDefinitionRepository) Add(definition *Definition, keys ...string) {
	if definition.URL != "" {
		repo.structureDefinitionsMap[definition.URL] = definition
	}
	for _, key := range keys {
		repo.structureDefinitionsMap[key] = definition
	}
}

// Len returns the number of registered keys.
func (repo *StructureDefinitionRepository) Len() int {
	return len(repo.structureDefinitionsMap)
}

// GetStructureDefinition looks a definition up by canonical URL, by retrieval
// URL without its .json suffix, or by the file name the URL points at.
func (repo *StructureDefinitionRepository) GetStructureDefinition(url string) (*Definition, error) {
	for _, key := range []string{url, strings.TrimSuffix(url, ".json"), path.Base(url)} {
		if definition, exists := repo.structureDefinitionsMap[key]; exists {
			return definition, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
}

// Fetch implements Fetcher.
func (repo *StructureDefinitionRepository) Fetch(_ context.Context, url string) (*Definition, error) {
	return repo.GetStructureDefinition(url)
}

// UnmarshalFunc is a function type for unmarshalling FHIR resources.
type UnmarshalFunc[T any] func([]byte) (T, error)

// ReadFHIRResource reads a FHIR resource from a JSON file and unmarshals it using the provided unmarshal function.
func ReadFHIRResource[T any](filePath string, unmarshal UnmarshalFunc[T]) (T, error) {
	var zero T

	file, err := os.Open(filePath)
	if err != nil {
		return zero, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return zero, fmt.Errorf("failed to read file: %w", err)
	}

	resource, err := unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	return resource, nil
}

// ReadFile reads a FHIR JSON document from disk.
func ReadFile(filePath string) (*Definition, error) {
	return ReadFHIRResource[*Definition](filePath, Decode)
}
