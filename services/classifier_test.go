package services_test

import (
	"context"
	"testing"

	"ertis-service/models"
	"ertis-service/services"
)

func TestKeywordClassifier(t *testing.T) {
	cases := []struct {
		name        string
		description string
		problemType string
		wantOK      bool
		category    string
		priority    models.RequestPriority
	}{
		{"road", "Huge pothole near the bus stop", "road damage", true, services.CategoryRoad, models.PriorityMedium},
		{"water high", "Pipe burst, street is flooding", "leak", true, services.CategoryWater, models.PriorityHigh},
		{"sanitation", "Garbage not collected for a week", "trash", true, services.CategorySanitation, models.PriorityMedium},
		{"electricity high", "Exposed wire hanging from the lamp post", "wiring", true, services.CategoryElectricity, models.PriorityHigh},
		{"no match", "Something vague happened", "misc", false, "", ""},
	}

	var cl services.KeywordClassifier
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := cl.Classify(context.Background(), tc.description, tc.problemType)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if got.Category != tc.category {
				t.Errorf("category = %s, want %s", got.Category, tc.category)
			}
			if got.Priority != tc.priority {
				t.Errorf("priority = %s, want %s", got.Priority, tc.priority)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	cats := services.Categories()
	if len(cats) != 5 {
		t.Fatalf("len = %d, want 5", len(cats))
	}
	for _, c := range cats {
		if !services.ValidCategory(c) {
			t.Errorf("Categories lists %q but ValidCategory rejects it", c)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{
		services.CategoryRoad, services.CategoryWater, services.CategorySanitation,
		services.CategoryElectricity, services.CategoryOther,
	} {
		if !services.ValidCategory(c) {
			t.Errorf("ValidCategory(%s) = false", c)
		}
	}
	if services.ValidCategory("plumbing") {
		t.Error("ValidCategory accepted an unknown label")
	}
}
