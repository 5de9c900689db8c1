package converter

import (
	"fmt"
	"strings"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/structuredefinition"
	"github.com/SanteonNL/sd2q/models/fhir"
	"github.com/gofhir/fhirpath"
)

// InvalidExpression is a generated initial expression that does not compile as FHIRPath.
type InvalidExpression struct {
	LinkID     string
	Expression string
	Err        error
}

func (e InvalidExpression) String() string {
	return fmt.Sprintf("%s: %q: %v", e.LinkID, e.Expression, e.Err)
}

// CheckExpressions compiles the initial expression of every item in the tree.
func CheckExpressions(items []fhir.QuestionnaireItem) []InvalidExpression {
	var invalid []InvalidExpression
	for _, item := range items {
		if expression, ok := item.InitialExpression(); ok {
			if _, err := fhirpath.Compile(expression); err != nil {
				invalid = append(invalid, InvalidExpression{LinkID: item.LinkId, Expression: expression, Err: err})
			}
		}
		invalid = append(invalid, CheckExpressions(item.Item)...)
	}
	return invalid
}

// initialExpression derives the pre-population expression of an element's item.
// Slice qualifiers in the path become plain path steps.
func initialExpression(item fhir.QuestionnaireItem, element structuredefinition.Element) string {
	if profile, ok := element.Profile(); ok {
		return fmt.Sprintf("%%%s.where(url='%s').value", expressionPath(element.Path), profile)
	}
	if element.FixedURI != "" {
		return fmt.Sprintf("%%%s.where(url='%s').value", expressionPath(element.Path), element.FixedURI)
	}
	return "%" + expressionPath(item.LinkId)
}

func expressionPath(path string) string {
	return strings.ReplaceAll(strings.ToLower(path), ":", ".")
}

// prepopulate attaches the initial expression. Items other than groups also get
// the expression as display instructions.
func prepopulate(item *fhir.QuestionnaireItem, expression string) {
	item.SetInstructions(expression)
	item.Extension = append(item.Extension, fhir.InitialExpressionExtension(expression))
}

// prepopulateTemplate applies pre-population to generated datatype sub-items.
func prepopulateTemplate(items []fhir.QuestionnaireItem) {
	for i := range items {
		prepopulate(&items[i], "%"+expressionPath(items[i].LinkId))
		prepopulateTemplate(items[i].Item)
	}
}
