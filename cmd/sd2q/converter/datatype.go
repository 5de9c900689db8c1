package converter

import (
	"github.com/SanteonNL/sd2q/models/fhir"
)

const valueSetBase = "http://hl7.org/fhir/ValueSet/"

// versionedValueSet returns the R4 canonical of a core value set.
func versionedValueSet(name string) string {
	return valueSetBase + name + "|4.0.1"
}

// datatypeTemplates holds the fixed sub-item trees of the complex datatypes
// whose shape does not vary by profile. CodeableConcept is not listed: its
// codings are bound to a caller-supplied valueset, see ExpandCodeableConcept.
var datatypeTemplates = map[string]func(prefix string) []fhir.QuestionnaireItem{
	"Address":      addressItems,
	"Period":       periodItems,
	"HumanName":    humanNameItems,
	"ContactPoint": contactPointItems,
	"Identifier":   identifierItems,
}

// ExpandDatatype returns the sub-items of a recognized complex datatype, with
// linkIds prefixed by the given linkId.
func ExpandDatatype(typeCode, prefix string) ([]fhir.QuestionnaireItem, bool) {
	template, ok := datatypeTemplates[typeCode]
	if !ok {
		return nil, false
	}
	return template(prefix), true
}

func templateItem(itemType fhir.QuestionnaireItemType, prefix, field, datatype string) fhir.QuestionnaireItem {
	return fhir.NewQuestionItem(itemType, prefix+"."+field, datatype+"."+field)
}

func boundItem(prefix, field, datatype, valueSet string) fhir.QuestionnaireItem {
	item := templateItem(fhir.QuestionnaireItemTypeChoice, prefix, field, datatype)
	item.SetAnswerValueSet(valueSet)
	return item
}

func repeatingItem(prefix, field, datatype string) fhir.QuestionnaireItem {
	item := templateItem(fhir.QuestionnaireItemTypeString, prefix, field, datatype)
	item.Repeats = true
	return item
}

func nestedPeriod(prefix, datatype string) fhir.QuestionnaireItem {
	item := fhir.NewGroupItem(prefix+".period", datatype+".period")
	item.Item = periodItems(item.LinkId)
	return item
}

func periodItems(prefix string) []fhir.QuestionnaireItem {
	return []fhir.QuestionnaireItem{
		templateItem(fhir.QuestionnaireItemTypeDateTime, prefix, "start", "Period"),
		templateItem(fhir.QuestionnaireItemTypeDateTime, prefix, "end", "Period"),
	}
}

func addressItems(prefix string) []fhir.QuestionnaireItem {
	return []fhir.QuestionnaireItem{
		boundItem(prefix, "use", "Address", versionedValueSet("address-use")),
		boundItem(prefix, "type", "Address", versionedValueSet("address-type")),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "text", "Address"),
		repeatingItem(prefix, "line", "Address"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "city", "Address"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "district", "Address"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "state", "Address"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "postalCode", "Address"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "country", "Address"),
		nestedPeriod(prefix, "Address"),
	}
}

func humanNameItems(prefix string) []fhir.QuestionnaireItem {
	return []fhir.QuestionnaireItem{
		boundItem(prefix, "use", "HumanName", versionedValueSet("name-use")),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "text", "HumanName"),
		repeatingItem(prefix, "family", "HumanName"),
		repeatingItem(prefix, "given", "HumanName"),
		repeatingItem(prefix, "prefix", "HumanName"),
		repeatingItem(prefix, "suffix", "HumanName"),
		nestedPeriod(prefix, "HumanName"),
	}
}

func contactPointItems(prefix string) []fhir.QuestionnaireItem {
	rank := templateItem(fhir.QuestionnaireItemTypeInteger, prefix, "rank", "ContactPoint")
	rank.Extension = []fhir.Extension{fhir.MinValueExtension(1)}

	return []fhir.QuestionnaireItem{
		boundItem(prefix, "system", "ContactPoint", versionedValueSet("contact-point-system")),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "value", "ContactPoint"),
		boundItem(prefix, "use", "ContactPoint", versionedValueSet("contact-point-use")),
		rank,
		nestedPeriod(prefix, "ContactPoint"),
	}
}

func identifierItems(prefix string) []fhir.QuestionnaireItem {
	identifierType := fhir.NewGroupItem(prefix+".type", "Identifier.type")
	identifierType.Item = ExpandCodeableConcept(identifierType.LinkId, versionedValueSet("identifier-type"))

	return []fhir.QuestionnaireItem{
		boundItem(prefix, "use", "Identifier", versionedValueSet("identifier-use")),
		identifierType,
		templateItem(fhir.QuestionnaireItemTypeUrl, prefix, "system", "Identifier"),
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "value", "Identifier"),
		nestedPeriod(prefix, "Identifier"),
		templateItem(fhir.QuestionnaireItemTypeReference, prefix, "assigner", "Identifier"),
	}
}

// ExpandCodeableConcept returns the sub-items of a CodeableConcept whose
// codings are bound to valueSet.
func ExpandCodeableConcept(prefix, valueSet string) []fhir.QuestionnaireItem {
	coding := boundItem(prefix, "coding", "CodeableConcept", valueSet)
	coding.Repeats = true

	return []fhir.QuestionnaireItem{
		coding,
		templateItem(fhir.QuestionnaireItemTypeString, prefix, "text", "CodeableConcept"),
	}
}
