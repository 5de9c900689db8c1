// Package profilelink picks the profile a rendered element row refers to and
// turns it into a URL the profile document can be retrieved from.
package profilelink

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/narrative"
	"golang.org/x/exp/slices"
)

// DefaultBaseTemplate is the retrieval URL a profile short name is substituted into.
const DefaultBaseTemplate = "https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-%s.json"

// ErrNoProfileLink is returned when no link of an element row identifies a profile.
var ErrNoProfileLink = errors.New("no profile link found")

var profileName = regexp.MustCompile(`StructureDefinition[/-]([^/#?]+?)(?:\.html|\.json|/|#|$)`)

// Resolver selects the profile link of an element row.
type Resolver struct {
	baseTemplate string
}

// NewResolver creates a Resolver. The template must contain a single %s for the profile name.
func NewResolver(baseTemplate string) *Resolver {
	if baseTemplate == "" {
		baseTemplate = DefaultBaseTemplate
	}
	return &Resolver{baseTemplate: baseTemplate}
}

// Resolve returns the retrieval URL for the row's profile. Extension definitions
// win over any other profile link and are returned as they are.
func (r *Resolver) Resolve(links narrative.Links) (string, error) {
	candidates := Candidates(links)

	if i := slices.IndexFunc(candidates, isExtensionLink); i >= 0 {
		return candidates[i], nil
	}

	i := slices.IndexFunc(candidates, isStructureDefinitionLink)
	if i < 0 {
		return "", ErrNoProfileLink
	}
	match := profileName.FindStringSubmatch(candidates[i])
	if match == nil {
		return "", fmt.Errorf("%w: cannot extract profile name from %s", ErrNoProfileLink, candidates[i])
	}
	return fmt.Sprintf(r.baseTemplate, match[1]), nil
}

// Candidates collects the absolute links of a row. Rendering sometimes prefixes
// a link with junk, so each candidate starts at its last "http".
func Candidates(links narrative.Links) []string {
	var candidates []string
	for _, href := range links.Hrefs() {
		i := strings.LastIndex(href, "http")
		if i < 0 {
			continue
		}
		candidate := href[i:]
		if strings.Contains(candidate, "datatype") {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// DocumentURL converts a rendered profile page URL to its JSON document.
func DocumentURL(link string) string {
	return strings.Replace(link, ".html", ".json", 1)
}

func isExtensionLink(link string) bool {
	return strings.Contains(link, "extension")
}

func isStructureDefinitionLink(link string) bool {
	return strings.Contains(link, "StructureDefinition")
}
