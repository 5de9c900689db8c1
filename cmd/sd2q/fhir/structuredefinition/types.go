package structuredefinition

import "context"

// ResourceType is the resourceType every profile document must declare.
const ResourceType = "StructureDefinition"

// System primitive type codes. Elements typed this way name their FHIR type in a type extension.
const (
	SystemString = "http://hl7.org/fhirpath/System.String"
	SystemDate   = "http://hl7.org/fhirpath/System.Date"
)

// Definition is the part of a StructureDefinition the questionnaire converter reads.
type Definition struct {
	ResourceType string
	URL          string
	Name         string
	Type         string
	Narrative    string
	Differential []Element
	Snapshot     []Element
}

// Element is one entry of a StructureDefinition element list.
type Element struct {
	ID          string
	Path        string
	Types       []TypeRef
	Min         int
	Max         string
	MustSupport bool
	ValueSet    string
	FixedURI    string
}

// TypeRef is one allowed type of an element.
type TypeRef struct {
	Code     string
	Profiles []string
	// ValueURL is the valueUrl of the first type extension, naming the FHIR type
	// behind a system primitive code.
	ValueURL string
}

// Fetcher retrieves a profile document by its retrieval URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Definition, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*Definition, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Definition, error) {
	return f(ctx, url)
}

// IsStructureDefinition reports whether the document declared the StructureDefinition resource type.
func (d *Definition) IsStructureDefinition() bool {
	return d != nil && d.ResourceType == ResourceType
}

// Elements returns the elements the profile constrains, in differential order,
// each resolved to its snapshot form. Without a differential the snapshot is used.
func (d *Definition) Elements() []Element {
	if len(d.Differential) == 0 {
		return d.Snapshot
	}

	snapshot := make(map[string]Element, len(d.Snapshot))
	for _, e := range d.Snapshot {
		if e.ID != "" {
			snapshot[e.ID] = e
		}
	}

	elements := make([]Element, 0, len(d.Differential))
	for _, e := range d.Differential {
		if resolved, ok := snapshot[e.ID]; ok && e.ID != "" {
			elements = append(elements, resolved)
			continue
		}
		elements = append(elements, e)
	}
	return elements
}

// IsRepeating reports an unbounded maximum cardinality.
func (e Element) IsRepeating() bool {
	return e.Max == "*"
}

// IsProhibited reports a maximum cardinality of zero.
func (e Element) IsProhibited() bool {
	return e.Max == "0"
}

// IsChoice reports an element that allows more than one type.
func (e Element) IsChoice() bool {
	return len(e.Types) > 1
}

// Profile returns the first profile of the first type, if any.
func (e Element) Profile() (string, bool) {
	if len(e.Types) == 0 || len(e.Types[0].Profiles) == 0 {
		return "", false
	}
	return e.Types[0].Profiles[0], true
}

// WithType returns a copy of the element restricted to a single type.
func (e Element) WithType(t TypeRef) Element {
	e.Types = []TypeRef{t}
	return e
}
