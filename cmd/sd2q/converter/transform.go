package converter

import (
	"context"
	"fmt"
	"strings"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/elementpath"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/narrative"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/structuredefinition"
	"github.com/SanteonNL/sd2q/models/fhir"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

var groupTypes = []string{
	"Meta",
	"Narrative",
	"Resource",
	"Extension",
	"HumanName",
	"Address",
	"BackboneElement",
	"ContactPoint",
	"Period",
	"Identifier",
}

// ItemType maps a FHIR type code onto a Questionnaire item type.
func ItemType(typeCode string) fhir.QuestionnaireItemType {
	switch typeCode {
	case "boolean":
		return fhir.QuestionnaireItemTypeBoolean
	case "uri":
		return fhir.QuestionnaireItemTypeUrl
	case "id":
		return fhir.QuestionnaireItemTypeString
	case "date":
		return fhir.QuestionnaireItemTypeDate
	case "dateTime":
		return fhir.QuestionnaireItemTypeDateTime
	case "code", "CodeableConcept", "Coding":
		return fhir.QuestionnaireItemTypeChoice
	case "Attachment":
		return fhir.QuestionnaireItemTypeAttachment
	case "Reference":
		return fhir.QuestionnaireItemTypeReference
	}
	if slices.Contains(groupTypes, typeCode) {
		return fhir.QuestionnaireItemTypeGroup
	}
	return fhir.QuestionnaireItemTypeString
}

// typeName returns the FHIR type an element type stands for. System primitive
// codes name their FHIR type through a type extension.
func typeName(t structuredefinition.TypeRef) string {
	if (t.Code == structuredefinition.SystemString || t.Code == structuredefinition.SystemDate) && t.ValueURL != "" {
		return t.ValueURL
	}
	return t.Code
}

// level is one profile being transformed: the root profile or a profile
// referenced by an item of an enclosing level.
type level struct {
	definition *structuredefinition.Definition
	table      narrative.TableElements
	// base is the resource type at the root and the referencing item's linkId below it.
	base string
	root bool
	// chain lists the retrieval and canonical URLs of the enclosing profiles.
	chain  []string
	depth  int
	logger zerolog.Logger
}

// conversion carries the state of one CreateQuestionnaire call.
type conversion struct {
	ctx     context.Context
	svc     *QuestionnaireService
	fetcher structuredefinition.Fetcher
}

// transformElements converts the elements of one level into an assembled item tree.
func (c *conversion) transformElements(lvl level) ([]fhir.QuestionnaireItem, error) {
	var items []fhir.QuestionnaireItem
	for _, element := range lvl.definition.Elements() {
		if !c.accept(lvl, element) {
			continue
		}

		item, err := c.transformElement(lvl, element, c.linkID(lvl, element))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return Assemble(lvl.base, items), nil
}

// accept applies the element filters. Skipped elements are not an error.
func (c *conversion) accept(lvl level, element structuredefinition.Element) bool {
	switch {
	case element.ID == "" || len(element.Types) == 0:
		return false
	case len(element.Types) == 1 && element.Types[0].Code == "":
		return false
	case elementpath.StripRoot(element.ID) == "":
		// The root element is the resource or the referencing item itself.
		return false
	case element.IsProhibited():
		lvl.logger.Debug().Str("element", element.ID).Msg("Skipping prohibited element")
		return false
	case lvl.root && !element.MustSupport:
		return false
	}
	return true
}

func (c *conversion) linkID(lvl level, element structuredefinition.Element) string {
	if lvl.root {
		return element.ID
	}
	return elementpath.Reroot(lvl.base, element.ID)
}

// transformElement converts one element into one item.
func (c *conversion) transformElement(lvl level, element structuredefinition.Element, linkID string) (fhir.QuestionnaireItem, error) {
	item := fhir.NewQuestionItem(fhir.QuestionnaireItemTypeString, linkID, linkID)
	item.Required = element.Min > 0
	item.Repeats = element.IsRepeating()

	if element.IsChoice() {
		item.SetType(fhir.QuestionnaireItemTypeGroup)
		if !c.svc.expandChoiceTypes {
			return item, nil
		}
		for _, t := range element.Types {
			choice := element.WithType(t)
			child, err := c.transformElement(lvl, choice, elementpath.TypedChoice(linkID, typeName(t)))
			if err != nil {
				return item, err
			}
			child.Required = false
			child.Repeats = false
			if err := item.AddItem(child); err != nil {
				return item, err
			}
		}
		return item, nil
	}

	t := element.Types[0]
	name := typeName(t)
	item.SetType(ItemType(name))

	if elementpath.IsChoice(item.LinkId) {
		item.LinkId = elementpath.ReplaceChoice(item.LinkId, name)
		item.Text = item.LinkId
	}

	if item.Type.IsGroup() {
		if err := c.expandGroup(lvl, element, &item, name); err != nil {
			return item, err
		}
	}

	item.SetInitialUri(element.FixedURI)
	item.SetAnswerValueSet(element.ValueSet)
	prepopulate(&item, initialExpression(item, element))

	return item, nil
}

// expandGroup populates a group from the referenced profile, or else from a datatype template.
func (c *conversion) expandGroup(lvl level, element structuredefinition.Element, item *fhir.QuestionnaireItem, typeCode string) error {
	if _, ok := element.Profile(); ok {
		return c.expandProfile(lvl, element, item)
	}

	children, ok := ExpandDatatype(typeCode, item.LinkId)
	if !ok {
		return nil
	}
	prepopulateTemplate(children)
	return item.AddItem(children...)
}

// expandProfile resolves the profile an element references through the
// narrative links of its row and transforms it into the item's children.
// Resolution and retrieval failures leave the item without children.
func (c *conversion) expandProfile(lvl level, element structuredefinition.Element, item *fhir.QuestionnaireItem) error {
	key := tableKey(lvl, element)
	links, ok := lvl.table[key]
	if !ok {
		lvl.logger.Debug().Str("element", element.ID).Str("key", key).Msg("No narrative row for profiled element")
		return nil
	}

	url, err := c.svc.resolver.Resolve(links)
	if err != nil {
		lvl.logger.Warn().Err(err).Str("element", element.ID).Msg("Unable to resolve profile")
		return nil
	}
	if err := c.guard(lvl, url); err != nil {
		return err
	}

	definition, err := c.fetcher.Fetch(c.ctx, url)
	if err != nil {
		if ctxErr := c.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lvl.logger.Warn().Err(err).Str("element", element.ID).Str("url", url).Msg("Unable to retrieve profile")
		return nil
	}
	if definition.URL != "" && definition.URL != url {
		if err := c.guard(lvl, definition.URL); err != nil {
			return err
		}
	}

	table, err := narrative.ReadTableElements(definition.Narrative)
	if err != nil {
		lvl.logger.Warn().Err(err).Str("url", url).Msg("Unable to read narrative table")
		table = narrative.TableElements{}
	}

	chain := append(slices.Clone(lvl.chain), url)
	if definition.URL != "" && definition.URL != url {
		chain = append(chain, definition.URL)
	}

	children, err := c.transformElements(level{
		definition: definition,
		table:      table,
		base:       item.LinkId,
		chain:      chain,
		depth:      lvl.depth + 1,
		logger:     lvl.logger.With().Str("profile", url).Logger(),
	})
	if err != nil {
		return err
	}
	return item.AddItem(children...)
}

// guard stops a profile from being expanded inside its own expansion and bounds the nesting depth.
func (c *conversion) guard(lvl level, url string) error {
	if slices.Contains(lvl.chain, url) {
		return fmt.Errorf("%w: %s", ErrProfileCycle, strings.Join(append(slices.Clone(lvl.chain), url), " -> "))
	}
	if lvl.depth >= c.svc.maxDepth {
		return fmt.Errorf("%w: nesting exceeds %d profiles at %s", ErrProfileCycle, c.svc.maxDepth, url)
	}
	return nil
}

// tableKey returns the narrative row name of an element: the id without its
// resource root at the root level, the slice name below it.
func tableKey(lvl level, element structuredefinition.Element) string {
	if lvl.root {
		return elementpath.StripRoot(element.ID)
	}
	return elementpath.SliceName(element.ID)
}
