package services

import (
	"context"
	"strings"

	"ertis-service/models"
)

// Request categories. The classifier and the create endpoint agree on
// these labels.
const (
	CategoryRoad        = "road"
	CategoryWater       = "water"
	CategorySanitation  = "sanitation"
	CategoryElectricity = "electricity"
	CategoryOther       = "other"
)

// Categories lists the known category labels, for the creation form.
func Categories() []string {
	return []string{CategoryRoad, CategoryWater, CategorySanitation, CategoryElectricity, CategoryOther}
}

// ValidCategory reports whether c names a known category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryRoad, CategoryWater, CategorySanitation, CategoryElectricity, CategoryOther:
		return true
	}
	return false
}

// Classification is the classifier's label for a new request.
type Classification struct {
	Category string
	Priority models.RequestPriority
}

// Classifier produces a category and priority for a freshly reported
// problem. It is an opaque, best-effort collaborator: a false second
// return value means "no answer" and the caller keeps its defaults.
type Classifier interface {
	Classify(ctx context.Context, description, problemType string) (Classification, bool)
}

// KeywordClassifier labels requests by keyword matching on the description
// and problem type. It stands in for the external model the production
// deployment calls.
type KeywordClassifier struct{}

// Checked in order; the first category with a hit wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryRoad, []string{"road", "pothole", "asphalt", "sidewalk", "crosswalk"}},
	{CategoryWater, []string{"water", "pipe", "leak", "sewer", "flood"}},
	{CategorySanitation, []string{"trash", "garbage", "waste", "dump", "litter"}},
	{CategoryElectricity, []string{"light", "lamp", "power", "electric", "wire"}},
}

var highPriorityKeywords = []string{"danger", "accident", "flood", "collapse", "fire", "gas", "exposed wire"}

func (KeywordClassifier) Classify(ctx context.Context, description, problemType string) (Classification, bool) {
	text := strings.ToLower(description + " " + problemType)

	cl := Classification{Category: "", Priority: models.PriorityMedium}
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(text, w) {
				cl.Category = entry.category
				break
			}
		}
		if cl.Category != "" {
			break
		}
	}

	for _, w := range highPriorityKeywords {
		if strings.Contains(text, w) {
			cl.Priority = models.PriorityHigh
			break
		}
	}

	if cl.Category == "" {
		return Classification{}, false
	}
	return cl, true
}
