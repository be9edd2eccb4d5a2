package instrumentation

// Cardinality management helpers for metrics.
//
// Category labels come from user data (corpus files, learn batches, Gmail
// label names), so they are bounded before they become metric attributes.

// KnownCategories is the category set reported verbatim in metrics.
var KnownCategories = []string{
	"Education",
	"Game",
	"Personal",
	"Phishing",
	"Promotion",
	"Social",
	"Spam",
	"Work",
}

var knownCategorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(KnownCategories))
	for _, c := range KnownCategories {
		set[c] = struct{}{}
	}
	return set
}()

// CategoryLabel maps a category label to a bounded metric value.
//
// Example:
//
//	CategoryLabel("Work")          // "Work"
//	CategoryLabel("Invoices-2024") // "other"
//	CategoryLabel("")              // "other"
func CategoryLabel(label string) string {
	if _, ok := knownCategorySet[label]; ok {
		return label
	}
	return LabelOther
}

// Common operation types for Gmail API metrics.
const (
	OperationList = "list"
	OperationGet  = "get"
)
