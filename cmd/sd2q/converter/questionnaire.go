// Package converter turns a StructureDefinition into a Questionnaire whose
// items mirror the elements the profile constrains.
package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/elementpath"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/narrative"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/profilelink"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/structuredefinition"
	"github.com/SanteonNL/sd2q/models/fhir"
	"github.com/SanteonNL/sd2q/util"
	"github.com/rs/zerolog"
)

var (
	// ErrNotStructureDefinition is returned when the input document is of another resource type.
	ErrNotStructureDefinition = errors.New("input is not a StructureDefinition")
	// ErrProfileCycle is returned when a profile is referenced from within its own expansion,
	// or profile references nest deeper than allowed.
	ErrProfileCycle = errors.New("profile cycle detected")
)

// DefaultMaxDepth bounds profile reference nesting when no limit is configured.
const DefaultMaxDepth = 8

// QuestionnaireConfig holds the collaborators and switches of a QuestionnaireService.
type QuestionnaireConfig struct {
	Log      zerolog.Logger
	Fetcher  structuredefinition.Fetcher
	Resolver *profilelink.Resolver
	MaxDepth int
	// ExpandChoiceTypes gives polymorphic elements one child item per allowed type.
	ExpandChoiceTypes bool
	// CheckExpressions compiles every generated initial expression and reports failures.
	CheckExpressions bool
	// Now defaults to time.Now.
	Now func() time.Time
}

type QuestionnaireService struct {
	log               zerolog.Logger
	fetcher           structuredefinition.Fetcher
	resolver          *profilelink.Resolver
	maxDepth          int
	expandChoiceTypes bool
	checkExpressions  bool
	now               func() time.Time
}

// NewQuestionnaireService creates a new questionnaire service with all required dependencies
func NewQuestionnaireService(config QuestionnaireConfig) (*QuestionnaireService, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if config.Resolver == nil {
		config.Resolver = profilelink.NewResolver(profilelink.DefaultBaseTemplate)
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &QuestionnaireService{
		log:               config.Log,
		fetcher:           config.Fetcher,
		resolver:          config.Resolver,
		maxDepth:          config.MaxDepth,
		expandChoiceTypes: config.ExpandChoiceTypes,
		checkExpressions:  config.CheckExpressions,
		now:               config.Now,
	}, nil
}

// Result is a generated Questionnaire with the diagnostics of its generation.
type Result struct {
	Questionnaire      fhir.Questionnaire
	InvalidExpressions []InvalidExpression
}

// CreateQuestionnaire converts a StructureDefinition into a Questionnaire.
// The table maps element names to the links of the definition's narrative rows;
// when nil it is read from the definition itself.
func (svc *QuestionnaireService) CreateQuestionnaire(ctx context.Context, definition *structuredefinition.Definition, table narrative.TableElements, id, title string) (*Result, error) {
	if !definition.IsStructureDefinition() {
		resourceType := ""
		if definition != nil {
			resourceType = definition.ResourceType
		}
		return nil, fmt.Errorf("%w: resourceType %q", ErrNotStructureDefinition, resourceType)
	}

	if table == nil {
		var err error
		table, err = narrative.ReadTableElements(definition.Narrative)
		if err != nil {
			return nil, fmt.Errorf("failed to read narrative table: %w", err)
		}
	}

	resourceType := resourceTypeOf(definition)
	log := svc.log.With().Str("profile", definition.URL).Logger()
	log.Debug().Str("resourceType", resourceType).Int("tableElements", len(table)).Msg("Creating questionnaire")

	var chain []string
	if definition.URL != "" {
		chain = append(chain, definition.URL)
	}

	c := &conversion{
		ctx:     ctx,
		svc:     svc,
		fetcher: structuredefinition.NewCache(svc.fetcher),
	}
	items, err := c.transformElements(level{
		definition: definition,
		table:      table,
		base:       resourceType,
		root:       true,
		chain:      chain,
		logger:     log,
	})
	if err != nil {
		return nil, err
	}

	date := fhir.NewDate(svc.now())
	questionnaire := fhir.Questionnaire{
		Id:        util.StringPtr(id),
		Title:     util.StringPtr(title),
		Status:    fhir.PublicationStatusActive,
		Date:      &date,
		Extension: []fhir.Extension{fhir.LaunchContextExtension(resourceType)},
		Item:      RemoveEmptyGroups(items),
	}

	result := &Result{Questionnaire: questionnaire}
	if svc.checkExpressions {
		result.InvalidExpressions = CheckExpressions(questionnaire.Item)
		for _, invalid := range result.InvalidExpressions {
			log.Warn().Err(invalid.Err).Str("linkId", invalid.LinkID).Str("expression", invalid.Expression).Msg("Generated initial expression is not valid FHIRPath")
		}
	}

	log.Info().Int("items", len(questionnaire.Item)).Msg("Questionnaire created")
	return result, nil
}

// resourceTypeOf returns the profiled resource type, falling back to the root of the first element id.
func resourceTypeOf(definition *structuredefinition.Definition) string {
	if definition.Type != "" {
		return definition.Type
	}
	for _, element := range definition.Elements() {
		if root := elementpath.Root(element.ID); root != "" {
			return root
		}
	}
	return ""
}
