package converter

import "github.com/SanteonNL/sd2q/models/fhir"

// RemoveEmptyGroups drops every group left without children, bottom-up, so
// removing a group may in turn empty and remove its parent.
func RemoveEmptyGroups(items []fhir.QuestionnaireItem) []fhir.QuestionnaireItem {
	var kept []fhir.QuestionnaireItem
	for _, item := range items {
		if item.Type.IsGroup() {
			item.Item = RemoveEmptyGroups(item.Item)
			if len(item.Item) == 0 {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}
