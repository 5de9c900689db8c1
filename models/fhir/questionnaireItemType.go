package fhir

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// QuestionnaireItemType is documented here http://hl7.org/fhir/ValueSet/item-type
type QuestionnaireItemType int

const (
	QuestionnaireItemTypeGroup QuestionnaireItemType = iota
	QuestionnaireItemTypeDisplay
	QuestionnaireItemTypeBoolean
	QuestionnaireItemTypeInteger
	QuestionnaireItemTypeDate
	QuestionnaireItemTypeDateTime
	QuestionnaireItemTypeString
	QuestionnaireItemTypeUrl
	QuestionnaireItemTypeChoice
	QuestionnaireItemTypeAttachment
	QuestionnaireItemTypeReference
)

func (code QuestionnaireItemType) MarshalJSON() ([]byte, error) {
	return json.Marshal(code.Code())
}

func (code *QuestionnaireItemType) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	switch s {
	case "group":
		*code = QuestionnaireItemTypeGroup
	case "display":
		*code = QuestionnaireItemTypeDisplay
	case "boolean":
		*code = QuestionnaireItemTypeBoolean
	case "integer":
		*code = QuestionnaireItemTypeInteger
	case "date":
		*code = QuestionnaireItemTypeDate
	case "dateTime":
		*code = QuestionnaireItemTypeDateTime
	case "string":
		*code = QuestionnaireItemTypeString
	case "url":
		*code = QuestionnaireItemTypeUrl
	case "choice":
		*code = QuestionnaireItemTypeChoice
	case "attachment":
		*code = QuestionnaireItemTypeAttachment
	case "reference":
		*code = QuestionnaireItemTypeReference
	default:
		return fmt.Errorf("unknown QuestionnaireItemType code `%s`", s)
	}
	return nil
}

func (code QuestionnaireItemType) String() string {
	return code.Code()
}

func (code QuestionnaireItemType) Code() string {
	switch code {
	case QuestionnaireItemTypeGroup:
		return "group"
	case QuestionnaireItemTypeDisplay:
		return "display"
	case QuestionnaireItemTypeBoolean:
		return "boolean"
	case QuestionnaireItemTypeInteger:
		return "integer"
	case QuestionnaireItemTypeDate:
		return "date"
	case QuestionnaireItemTypeDateTime:
		return "dateTime"
	case QuestionnaireItemTypeString:
		return "string"
	case QuestionnaireItemTypeUrl:
		return "url"
	case QuestionnaireItemTypeChoice:
		return "choice"
	case QuestionnaireItemTypeAttachment:
		return "attachment"
	case QuestionnaireItemTypeReference:
		return "reference"
	}
	return "<unknown>"
}

// IsGroup reports whether items of this type carry child items.
func (code QuestionnaireItemType) IsGroup() bool {
	return code == QuestionnaireItemTypeGroup
}
