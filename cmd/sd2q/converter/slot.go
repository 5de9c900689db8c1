package converter

import (
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/elementpath"
	"github.com/SanteonNL/sd2q/models/fhir"
	"golang.org/x/exp/slices"
)

// Assemble nests a flat, emission-ordered item list below base using the
// structure of each linkId. Intermediate groups that were never emitted are
// synthesized. Assembling an already nested tree returns an equal tree.
func Assemble(base string, items []fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
	var tree []fhir.QuestionnaireItem
	for _, item := range items {
		tree = Slot(tree, base, item)
	}
	return tree
}

// Slot returns a copy of tree with item placed at the position its linkId
// addresses below base. The input tree is not modified.
func Slot(tree []fhir.QuestionnaireItem, base string, item fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
	return slot(tree, base, elementpath.Relative(base, item.LinkId), item)
}

func slot(level []fhir.QuestionnaireItem, parentID string, segments []string, item fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
	level = slices.Clone(level)
	if len(segments) <= 1 {
		return merge(level, item)
	}

	childID := elementpath.ComposeChild(parentID, segments[0])
	idx := indexOf(level, childID)
	if idx < 0 {
		placeholder := fhir.NewGroupItem(childID, childID)
		placeholder.Item = slot(nil, childID, segments[1:], item)
		return append(level, placeholder)
	}

	parent := level[idx]
	if !parent.Type.IsGroup() {
		// A leaf holds the intermediate position and cannot own children.
		return merge(level, item)
	}
	parent.Item = slot(parent.Item, parent.LinkId, segments[1:], item)
	level[idx] = parent
	return level
}

// merge appends item to level, or folds it into the entry with the same linkId.
func merge(level []fhir.QuestionnaireItem, item fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
	idx := indexOf(level, item.LinkId)
	if idx < 0 {
		return append(level, item)
	}
	merged, orphans := mergeItems(level[idx], item)
	level[idx] = merged
	return append(level, orphans...)
}

// mergeItems lets incoming take over the attributes of existing while keeping
// the children both have collected. Children a non-group can no longer hold
// are returned as orphans for the enclosing level.
func mergeItems(existing, incoming fhir.QuestionnaireItem) (fhir.QuestionnaireItem, []fhir.QuestionnaireItem) {
	if !incoming.Type.IsGroup() {
		if existing.Type.IsGroup() {
			return incoming, existing.Item
		}
		return incoming, nil
	}
	if !existing.Type.IsGroup() {
		return incoming, nil
	}

	children := slices.Clone(existing.Item)
	for _, child := range incoming.Item {
		children = merge(children, child)
	}
	incoming.Item = children
	return incoming, nil
}

func indexOf(level []fhir.QuestionnaireItem, linkID string) int {
	return slices.IndexFunc(level, func(item fhir.QuestionnaireItem) bool {
		return elementpath.Equal(item.LinkId, linkID)
	})
}
