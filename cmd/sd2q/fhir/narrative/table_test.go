package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patientDiv = `<div xmlns="http://www.w3.org/1999/xhtml"><table border="0">
<tr><th>Name</th><th>Flags</th><th>Card.</th><th>Type</th></tr>
<tr><td><a href="StructureDefinition-au-core-patient-definitions.html#Patient">Patient</a></td><td><a href="http://hl7.org/fhir/R4/patient.html">Patient</a></td></tr>
<tr><td><a href="StructureDefinition-au-core-patient-definitions.html#Patient.extension:indigenousStatus">extension:indigenousStatus</a></td>
<td><a href="http://hl7.org/fhir/R4/extensibility.html#Extension">Extension</a>(<a href="https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-indigenous-status.html">AU Indigenous Status</a>)</td></tr>
<tr><td><a href="StructureDefinition-au-core-patient-definitions.html#Patient.birthDate">birthDate</a></td><td><a href="http://hl7.org/fhir/R4/datatypes.html#date">date</a></td></tr>
<tr><td><a href="StructureDefinition-au-core-patient-definitions.html#Patient.birthDate.extension:birthTime">extension:birthTime</a></td>
<td><a href="http://hl7.org/fhir/StructureDefinition/patient-birthTime">Birth Time</a></td></tr>
<tr><td><a href="http://hl7.org/fhir/R4/datatypes.html#HumanName">HumanName</a></td></tr>
<tr><td colspan="4"><a href="https://build.fhir.org/ig/FHIR/ig-guidance/readingIgs.html#table-views">Documentation for this format</a></td></tr>
</table></div>`

func TestReadTableElements(t *testing.T) {
	elements, err := ReadTableElements(patientDiv)
	require.NoError(t, err)

	t.Run("resource rows are dropped", func(t *testing.T) {
		assert.NotContains(t, elements, "Patient")
		assert.NotContains(t, elements, "HumanName")
	})

	t.Run("top level extension keeps its slice name", func(t *testing.T) {
		links, ok := elements["extension:indigenousStatus"]
		require.True(t, ok)
		href, _ := links.Href("AU Indigenous Status")
		assert.Equal(t, "https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-indigenous-status.html", href)
		assert.Equal(t, []string{
			"StructureDefinition-au-core-patient-definitions.html#Patient.extension:indigenousStatus",
			"http://hl7.org/fhir/R4/extensibility.html#Extension",
			"https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-indigenous-status.html",
		}, links.Hrefs())
	})

	t.Run("nested extension is qualified with its element", func(t *testing.T) {
		links, ok := elements["birthDate.extension:birthTime"]
		require.True(t, ok)
		href, ok := links.Href("Birth Time")
		require.True(t, ok)
		assert.Equal(t, "http://hl7.org/fhir/StructureDefinition/patient-birthTime", href)
	})

	t.Run("plain element row", func(t *testing.T) {
		assert.Contains(t, elements, "birthDate")
	})

	t.Run("trailing row is skipped", func(t *testing.T) {
		assert.NotContains(t, elements, "Documentation for this format")
	})
}

func TestReadTableElementsEmpty(t *testing.T) {
	elements, err := ReadTableElements("")
	require.NoError(t, err)
	assert.Empty(t, elements)

	elements, err = ReadTableElements("<div><p>no table here</p></div>")
	require.NoError(t, err)
	assert.Empty(t, elements)
}
