// Package elementpath parses StructureDefinition element ids and composes
// Questionnaire linkIds from them.
//
// An element id is a list of segments separated by '.', where any segment
// may carry a ':sliceName' qualifier, e.g. Patient.extension:birthPlace.value[x].
package elementpath

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	extensionSegment   = "extension"
	choicePlaceholder  = "value[x]"
	choicePrefix       = "value"
	choiceSuffix       = "[x]"
	structureSeparator = "."
	sliceSeparator     = ":"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Split breaks an identifier into its non-empty alphanumeric segments.
func Split(identifier string) []string {
	parts := nonAlphanumeric.Split(identifier, -1)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// Equal reports whether two identifiers address the same path, ignoring separator kinds.
func Equal(a, b string) bool {
	sa, sb := Split(a), Split(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// ComposeChild joins a child segment onto a parent identifier. Children of an
// extension element are slices and are joined with ':'.
func ComposeChild(parentID, segment string) string {
	if parentID == "" {
		return segment
	}
	if IsExtension(parentID) {
		return parentID + sliceSeparator + segment
	}
	return parentID + structureSeparator + segment
}

// IsExtension reports whether the identifier addresses an extension element itself
// (as opposed to one of its slices or children).
func IsExtension(identifier string) bool {
	return strings.HasSuffix(identifier, extensionSegment)
}

// IsExtensionName reports whether a rendered element name denotes an extension row.
func IsExtensionName(name string) bool {
	return strings.HasPrefix(name, extensionSegment)
}

// IsResourceName reports whether a name is a type or resource name rather than an element name.
// FHIR type names start upper case, element names lower case.
func IsResourceName(name string) bool {
	r, size := utf8.DecodeRuneInString(name)
	return size > 0 && unicode.IsUpper(r)
}

// Root returns the first segment of an element id, the resource or datatype it belongs to.
func Root(id string) string {
	root, _, _ := strings.Cut(id, structureSeparator)
	return root
}

// StripRoot removes the root segment, e.g. Patient.name.given becomes name.given.
func StripRoot(id string) string {
	_, rest, found := strings.Cut(id, structureSeparator)
	if !found {
		return ""
	}
	return rest
}

// SliceName returns the part after the first ':' qualifier, or the id itself when unqualified.
func SliceName(id string) string {
	_, slice, found := strings.Cut(id, sliceSeparator)
	if !found {
		return id
	}
	return slice
}

// IsChoice reports whether an id ends in the polymorphic value[x] placeholder.
func IsChoice(id string) bool {
	return strings.HasSuffix(id, choicePlaceholder)
}

// ReplaceChoice substitutes the value[x] placeholder with value<TypeCode>.
func ReplaceChoice(id, typeCode string) string {
	if !IsChoice(id) {
		return id
	}
	return strings.TrimSuffix(id, choicePlaceholder) + choicePrefix + capitalize(typeCode)
}

// TypedChoice names one type alternative of a polymorphic element:
// Observation.effective[x] with dateTime becomes Observation.effectiveDateTime.
func TypedChoice(id, typeCode string) string {
	if strings.HasSuffix(id, choiceSuffix) {
		return strings.TrimSuffix(id, choiceSuffix) + capitalize(typeCode)
	}
	return ComposeChild(id, typeCode)
}

// Reroot moves an element id of a referenced profile under the linkId of the item referencing it.
// Extension.value[x] under Patient.extension:birthPlace becomes Patient.extension:birthPlace.value[x].
func Reroot(parentLinkID, id string) string {
	rest := StripRoot(id)
	if rest == "" {
		return parentLinkID
	}
	if parentLinkID == "" {
		return rest
	}
	return parentLinkID + structureSeparator + rest
}

// Segments breaks an id on its structural separators only, so slice names
// such as indigenous-status stay whole.
func Segments(id string) []string {
	return strings.FieldsFunc(id, func(r rune) bool {
		return r == '.' || r == ':'
	})
}

// Relative returns the structural segments of linkID below base. When linkID
// is not below base its full segment list is returned.
func Relative(base, linkID string) []string {
	if base != "" && strings.HasPrefix(linkID, base) {
		rest := linkID[len(base):]
		if rest == "" || strings.ContainsAny(rest[:1], structureSeparator+sliceSeparator) {
			return Segments(rest)
		}
	}
	return Segments(linkID)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
