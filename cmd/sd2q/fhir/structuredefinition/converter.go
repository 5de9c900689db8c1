package structuredefinition

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/samply/golang-fhir-models/fhir-models/fhir"
)

type resourceHeader struct {
	ResourceType string `json:"resourceType"`
}

// Decode parses a FHIR JSON document. Documents of any other resource type are
// returned with only their ResourceType set, so callers can reject them.
func Decode(data []byte) (*Definition, error) {
	var header resourceHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}
	if header.ResourceType != ResourceType {
		return &Definition{ResourceType: header.ResourceType}, nil
	}

	sd, err := fhir.UnmarshalStructureDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal StructureDefinition: %w", err)
	}
	return ConvertStructureDefinition(sd), nil
}

// ConvertStructureDefinition maps an R4 StructureDefinition onto a Definition.
func ConvertStructureDefinition(sd fhir.StructureDefinition) *Definition {
	def := &Definition{
		ResourceType: ResourceType,
		URL:          sd.Url,
		Name:         sd.Name,
		Type:         sd.Type,
	}
	if sd.Text != nil {
		def.Narrative = sd.Text.Div
	}
	if sd.Snapshot != nil {
		def.Snapshot = convertElements(sd.Snapshot.Element)
	}
	if sd.Differential != nil {
		def.Differential = convertElements(sd.Differential.Element)
	}
	return def
}

func convertElements(elements []fhir.ElementDefinition) []Element {
	if len(elements) == 0 {
		return nil
	}
	result := make([]Element, 0, len(elements))
	for i := range elements {
		result = append(result, convertElement(&elements[i]))
	}
	return result
}

func convertElement(ed *fhir.ElementDefinition) Element {
	e := Element{
		ID:          derefString(ed.Id),
		Path:        ed.Path,
		Max:         derefString(ed.Max),
		MustSupport: derefBool(ed.MustSupport),
		FixedURI:    derefString(ed.FixedUri),
		Types:       convertTypes(ed.Type),
	}
	if ed.Min != nil {
		e.Min = *ed.Min
	}
	if ed.Binding != nil {
		e.ValueSet = derefString(ed.Binding.ValueSet)
	}
	return e
}

func convertTypes(types []fhir.ElementDefinitionType) []TypeRef {
	if len(types) == 0 {
		return nil
	}
	result := make([]TypeRef, 0, len(types))
	for _, t := range types {
		ref := TypeRef{
			Code:     t.Code,
			Profiles: t.Profile,
		}
		if len(t.Extension) > 0 {
			ref.ValueURL = derefString(t.Extension[0].ValueUrl)
		}
		result = append(result, ref)
	}
	return result
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
