package fhir

import (
	"fmt"
	"strings"

	"github.com/SanteonNL/sd2q/util"
)

const (
	InitialExpressionUrl  = "http://hl7.org/fhir/uv/sdc/StructureDefinition/sdc-questionnaire-initialExpression"
	LaunchContextUrl      = "http://hl7.org/fhir/uv/sdc/StructureDefinition/sdc-questionnaire-launchContext"
	LaunchContextSystem   = "http://hl7.org/fhir/uv/sdc/CodeSystem/launchContext"
	DisplayCategoryUrl    = "http://hl7.org/fhir/StructureDefinition/questionnaire-displayCategory"
	DisplayCategorySystem = "http://hl7.org/fhir/questionnaire-display-category"
	MinValueUrl           = "http://hl7.org/fhir/StructureDefinition/minValue"

	FHIRPathLanguage = "text/fhirpath"
)

// Extension is documented here http://hl7.org/fhir/StructureDefinition/Extension
type Extension struct {
	Extension            []Extension      `json:"extension,omitempty"`
	Url                  string           `json:"url"`
	ValueCode            *string          `json:"valueCode,omitempty"`
	ValueString          *string          `json:"valueString,omitempty"`
	ValueInteger         *int             `json:"valueInteger,omitempty"`
	ValueCoding          *Coding          `json:"valueCoding,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueExpression      *Expression      `json:"valueExpression,omitempty"`
}

// Coding is documented here http://hl7.org/fhir/StructureDefinition/Coding
type Coding struct {
	System  *string `json:"system,omitempty"`
	Code    *string `json:"code,omitempty"`
	Display *string `json:"display,omitempty"`
}

// CodeableConcept is documented here http://hl7.org/fhir/StructureDefinition/CodeableConcept
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

// Expression is documented here http://hl7.org/fhir/StructureDefinition/Expression
type Expression struct {
	Language   string  `json:"language"`
	Expression *string `json:"expression,omitempty"`
}

// InitialExpressionExtension wraps a FHIRPath expression as an sdc-questionnaire-initialExpression.
func InitialExpressionExtension(expression string) Extension {
	return Extension{
		Url: InitialExpressionUrl,
		ValueExpression: &Expression{
			Language:   FHIRPathLanguage,
			Expression: util.StringPtr(expression),
		},
	}
}

// InitialExpression returns the initial expression attached to the item, if any.
func (i QuestionnaireItem) InitialExpression() (string, bool) {
	for _, ext := range i.Extension {
		if ext.Url == InitialExpressionUrl && ext.ValueExpression != nil && ext.ValueExpression.Expression != nil {
			return *ext.ValueExpression.Expression, true
		}
	}
	return "", false
}

// DisplayCategoryInstructionsExtension marks a display item as rendering instructions.
func DisplayCategoryInstructionsExtension() Extension {
	return Extension{
		Url: DisplayCategoryUrl,
		ValueCodeableConcept: &CodeableConcept{
			Coding: []Coding{{
				System: util.StringPtr(DisplayCategorySystem),
				Code:   util.StringPtr("instructions"),
			}},
		},
	}
}

// MinValueExtension constrains an integer item to a lower bound.
func MinValueExtension(min int) Extension {
	return Extension{
		Url:          MinValueUrl,
		ValueInteger: util.IntPtr(min),
	}
}

// LaunchContextExtension declares the resource a form filler binds %<name> expressions against.
func LaunchContextExtension(resourceType string) Extension {
	name := strings.ToLower(resourceType)
	return Extension{
		Url: LaunchContextUrl,
		Extension: []Extension{
			{
				Url: "name",
				ValueCoding: &Coding{
					System: util.StringPtr(LaunchContextSystem),
					Code:   util.StringPtr(name),
				},
			},
			{
				Url:       "type",
				ValueCode: util.StringPtr(resourceType),
			},
			{
				Url:         "description",
				ValueString: util.StringPtr(fmt.Sprintf("The %s that is to be used to pre-populate the form", name)),
			},
		},
	}
}
