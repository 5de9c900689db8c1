package fhir

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// PublicationStatus is documented here http://hl7.org/fhir/ValueSet/publication-status
type PublicationStatus int

const (
	PublicationStatusDraft PublicationStatus = iota
	PublicationStatusActive
	PublicationStatusRetired
	PublicationStatusUnknown
)

func (code PublicationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(code.Code())
}

func (code *PublicationStatus) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	switch s {
	case "draft":
		*code = PublicationStatusDraft
	case "active":
		*code = PublicationStatusActive
	case "retired":
		*code = PublicationStatusRetired
	case "unknown":
		*code = PublicationStatusUnknown
	default:
		return fmt.Errorf("unknown PublicationStatus code `%s`", s)
	}
	return nil
}

func (code PublicationStatus) Code() string {
	switch code {
	case PublicationStatusDraft:
		return "draft"
	case PublicationStatusActive:
		return "active"
	case PublicationStatusRetired:
		return "retired"
	case PublicationStatusUnknown:
		return "unknown"
	}
	return "<unknown>"
}

// Questionnaire is documented here http://hl7.org/fhir/StructureDefinition/Questionnaire
type Questionnaire struct {
	Id        *string             `json:"id,omitempty"`
	Extension []Extension         `json:"extension,omitempty"`
	Title     *string             `json:"title,omitempty"`
	Status    PublicationStatus   `json:"status"`
	Date      *DateTime           `json:"date,omitempty"`
	Item      []QuestionnaireItem `json:"item,omitempty"`
}

type OtherQuestionnaire Questionnaire

// MarshalJSON marshals the given Questionnaire as JSON into a byte slice
func (r Questionnaire) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OtherQuestionnaire
		ResourceType string `json:"resourceType"`
	}{
		OtherQuestionnaire: OtherQuestionnaire(r),
		ResourceType:       "Questionnaire",
	})
}

// UnmarshalQuestionnaire unmarshals a Questionnaire.
func UnmarshalQuestionnaire(b []byte) (Questionnaire, error) {
	var questionnaire Questionnaire
	if err := json.Unmarshal(b, &questionnaire); err != nil {
		return questionnaire, err
	}
	return questionnaire, nil
}

// QuestionnaireItem is one node of a Questionnaire item tree.
//
// Only group items own child items. Any other item may carry a single
// display pseudo-child holding human readable instructions, and only choice
// items carry an answer value set. The JSON form is derived from those rules,
// so a field that does not apply to the item type is never written.
type QuestionnaireItem struct {
	LinkId         string
	Text           string
	Type           QuestionnaireItemType
	Required       bool
	Repeats        bool
	AnswerValueSet *string
	InitialUri     *string
	Extension      []Extension
	Item           []QuestionnaireItem
	Instructions   *QuestionnaireItem
}

// InstructionsSuffix is appended to an item's linkId to form its display pseudo-child linkId.
const InstructionsSuffix = "-display-instructions"

// NewGroupItem creates an empty group item.
func NewGroupItem(linkId, text string) QuestionnaireItem {
	return QuestionnaireItem{LinkId: linkId, Text: text, Type: QuestionnaireItemTypeGroup}
}

// NewQuestionItem creates an answerable item of the given type.
func NewQuestionItem(itemType QuestionnaireItemType, linkId, text string) QuestionnaireItem {
	return QuestionnaireItem{LinkId: linkId, Text: text, Type: itemType}
}

// NewInstructionsItem creates the display pseudo-child for the item with the given linkId.
func NewInstructionsItem(parentLinkId, text string) QuestionnaireItem {
	return QuestionnaireItem{
		LinkId:    parentLinkId + InstructionsSuffix,
		Text:      text,
		Type:      QuestionnaireItemTypeDisplay,
		Extension: []Extension{DisplayCategoryInstructionsExtension()},
	}
}

// SetType changes the item type and drops whatever the new type cannot carry.
func (i *QuestionnaireItem) SetType(itemType QuestionnaireItemType) {
	i.Type = itemType
	if itemType.IsGroup() {
		i.Instructions = nil
	} else {
		i.Item = nil
	}
	if itemType != QuestionnaireItemTypeChoice {
		i.AnswerValueSet = nil
	}
	if itemType != QuestionnaireItemTypeUrl {
		i.InitialUri = nil
	}
}

// SetAnswerValueSet binds a choice item to a value set. It is a no-op for other item types.
func (i *QuestionnaireItem) SetAnswerValueSet(valueSet string) {
	if i.Type != QuestionnaireItemTypeChoice || valueSet == "" {
		return
	}
	i.AnswerValueSet = &valueSet
}

// SetInitialUri sets a literal default answer on a url item. It is a no-op for other item types.
func (i *QuestionnaireItem) SetInitialUri(uri string) {
	if i.Type != QuestionnaireItemTypeUrl || uri == "" {
		return
	}
	i.InitialUri = &uri
}

// SetInstructions attaches the display pseudo-child. Groups are rendered by their children and never get one.
func (i *QuestionnaireItem) SetInstructions(text string) {
	if i.Type.IsGroup() {
		return
	}
	instructions := NewInstructionsItem(i.LinkId, text)
	i.Instructions = &instructions
}

// AddItem appends children to a group item. It reports an error for any other item type.
func (i *QuestionnaireItem) AddItem(children ...QuestionnaireItem) error {
	if !i.Type.IsGroup() {
		return fmt.Errorf("item %s of type %s cannot have child items", i.LinkId, i.Type)
	}
	i.Item = append(i.Item, children...)
	return nil
}

// Children returns the child items as written to JSON.
func (i QuestionnaireItem) Children() []QuestionnaireItem {
	if i.Type.IsGroup() {
		return i.Item
	}
	if i.Instructions != nil {
		return []QuestionnaireItem{*i.Instructions}
	}
	return nil
}

// QuestionnaireItemInitial is documented here http://hl7.org/fhir/StructureDefinition/Questionnaire
type QuestionnaireItemInitial struct {
	ValueUri *string `json:"valueUri,omitempty"`
}

type questionnaireItemJSON struct {
	Extension      []Extension                `json:"extension,omitempty"`
	LinkId         string                     `json:"linkId"`
	Text           string                     `json:"text,omitempty"`
	Type           QuestionnaireItemType      `json:"type"`
	Required       *bool                      `json:"required,omitempty"`
	Repeats        *bool                      `json:"repeats,omitempty"`
	AnswerValueSet *string                    `json:"answerValueSet,omitempty"`
	Initial        []QuestionnaireItemInitial `json:"initial,omitempty"`
	Item           []QuestionnaireItem        `json:"item,omitempty"`
}

// MarshalJSON marshals the given QuestionnaireItem as JSON into a byte slice
func (i QuestionnaireItem) MarshalJSON() ([]byte, error) {
	out := questionnaireItemJSON{
		Extension: i.Extension,
		LinkId:    i.LinkId,
		Text:      i.Text,
		Type:      i.Type,
		Item:      i.Children(),
	}
	if i.Type != QuestionnaireItemTypeDisplay {
		required, repeats := i.Required, i.Repeats
		out.Required = &required
		out.Repeats = &repeats
	}
	if i.Type == QuestionnaireItemTypeChoice {
		out.AnswerValueSet = i.AnswerValueSet
	}
	if i.Type == QuestionnaireItemTypeUrl && i.InitialUri != nil {
		out.Initial = []QuestionnaireItemInitial{{ValueUri: i.InitialUri}}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a QuestionnaireItem, moving a display pseudo-child back into Instructions.
func (i *QuestionnaireItem) UnmarshalJSON(data []byte) error {
	var in questionnaireItemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*i = QuestionnaireItem{
		LinkId:         in.LinkId,
		Text:           in.Text,
		Type:           in.Type,
		AnswerValueSet: in.AnswerValueSet,
		Extension:      in.Extension,
	}
	if in.Required != nil {
		i.Required = *in.Required
	}
	if in.Repeats != nil {
		i.Repeats = *in.Repeats
	}
	for _, initial := range in.Initial {
		if initial.ValueUri != nil {
			i.InitialUri = initial.ValueUri
			break
		}
	}
	if i.Type.IsGroup() {
		i.Item = in.Item
		return nil
	}
	for idx := range in.Item {
		child := in.Item[idx]
		if child.Type == QuestionnaireItemTypeDisplay && child.LinkId == i.LinkId+InstructionsSuffix {
			i.Instructions = &child
			return nil
		}
	}
	if len(in.Item) > 0 {
		return fmt.Errorf("item %s of type %s cannot have child items", i.LinkId, i.Type)
	}
	return nil
}
