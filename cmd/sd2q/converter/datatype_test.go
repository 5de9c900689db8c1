package converter

import (
	"strings"
	"testing"

	"github.com/SanteonNL/sd2q/models/fhir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandDatatype(t *testing.T) {
	tests := []struct {
		typeCode string
		linkIDs  []string
	}{
		{"Period", []string{"X.start", "X.end"}},
		{"Address", []string{"X.use", "X.type", "X.text", "X.line", "X.city", "X.district", "X.state", "X.postalCode", "X.country", "X.period"}},
		{"HumanName", []string{"X.use", "X.text", "X.family", "X.given", "X.prefix", "X.suffix", "X.period"}},
		{"ContactPoint", []string{"X.system", "X.value", "X.use", "X.rank", "X.period"}},
		{"Identifier", []string{"X.use", "X.type", "X.system", "X.value", "X.period", "X.assigner"}},
	}

	for _, tt := range tests {
		t.Run(tt.typeCode, func(t *testing.T) {
			items, ok := ExpandDatatype(tt.typeCode, "X")
			require.True(t, ok)

			var linkIDs []string
			for _, item := range items {
				linkIDs = append(linkIDs, item.LinkId)
				assert.False(t, item.Required, item.LinkId)
			}
			assert.Equal(t, tt.linkIDs, linkIDs)
		})
	}
}

func TestExpandDatatype_Unknown(t *testing.T) {
	items, ok := ExpandDatatype("Quantity", "Observation.valueQuantity")
	assert.False(t, ok)
	assert.Nil(t, items)
}

func TestExpandCodeableConcept(t *testing.T) {
	valueSet := "http://hl7.org/fhir/ValueSet/marital-status|4.0.1"
	items := ExpandCodeableConcept("Patient.maritalStatus", valueSet)
	require.Len(t, items, 2)

	coding := items[0]
	assert.Equal(t, "Patient.maritalStatus.coding", coding.LinkId)
	assert.Equal(t, fhir.QuestionnaireItemTypeChoice, coding.Type)
	assert.True(t, coding.Repeats)
	assert.False(t, coding.Required)
	require.NotNil(t, coding.AnswerValueSet)
	assert.Equal(t, valueSet, *coding.AnswerValueSet)

	text := items[1]
	assert.Equal(t, "Patient.maritalStatus.text", text.LinkId)
	assert.Equal(t, fhir.QuestionnaireItemTypeString, text.Type)
	assert.False(t, text.Repeats)
	assert.Nil(t, text.AnswerValueSet)
}

func TestExpandDatatype_AddressDependsOnlyOnPrefix(t *testing.T) {
	home, _ := ExpandDatatype("Address", "Patient.address")
	work, _ := ExpandDatatype("Address", "Organization.address")

	stripped := func(items []fhir.QuestionnaireItem, prefix string) []fhir.QuestionnaireItem {
		var walk func([]fhir.QuestionnaireItem) []fhir.QuestionnaireItem
		walk = func(items []fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
			out := make([]fhir.QuestionnaireItem, len(items))
			for i, item := range items {
				item.LinkId = strings.TrimPrefix(item.LinkId, prefix)
				item.Item = walk(item.Item)
				out[i] = item
			}
			return out
		}
		return walk(items)
	}

	assert.Equal(t, stripped(home, "Patient.address"), stripped(work, "Organization.address"))
}

func TestExpandDatatype_Details(t *testing.T) {
	address, _ := ExpandDatatype("Address", "Patient.address")
	assert.Equal(t, fhir.QuestionnaireItemTypeChoice, address[0].Type)
	require.NotNil(t, address[0].AnswerValueSet)
	assert.Equal(t, "http://hl7.org/fhir/ValueSet/address-use|4.0.1", *address[0].AnswerValueSet)
	assert.True(t, address[3].Repeats)
	assert.Equal(t, "Address.line", address[3].Text)

	period := address[9]
	assert.Equal(t, fhir.QuestionnaireItemTypeGroup, period.Type)
	require.Len(t, period.Item, 2)
	assert.Equal(t, "Patient.address.period.start", period.Item[0].LinkId)
	assert.Equal(t, fhir.QuestionnaireItemTypeDateTime, period.Item[0].Type)

	contactPoint, _ := ExpandDatatype("ContactPoint", "Patient.telecom")
	rank := contactPoint[3]
	assert.Equal(t, fhir.QuestionnaireItemTypeInteger, rank.Type)
	require.Len(t, rank.Extension, 1)
	assert.Equal(t, fhir.MinValueUrl, rank.Extension[0].Url)
	assert.Equal(t, 1, *rank.Extension[0].ValueInteger)

	identifier, _ := ExpandDatatype("Identifier", "Patient.identifier")
	identifierType := identifier[1]
	require.Len(t, identifierType.Item, 2)
	coding := identifierType.Item[0]
	assert.Equal(t, "Patient.identifier.type.coding", coding.LinkId)
	assert.True(t, coding.Repeats)
	assert.Equal(t, "http://hl7.org/fhir/ValueSet/identifier-type|4.0.1", *coding.AnswerValueSet)
	assert.Equal(t, fhir.QuestionnaireItemTypeUrl, identifier[2].Type)
	assert.Equal(t, fhir.QuestionnaireItemTypeReference, identifier[5].Type)
}
