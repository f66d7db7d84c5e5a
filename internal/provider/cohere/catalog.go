package cohere

import "github.com/davidbz/ensemble/internal/model"

// Catalog lists the models this family registers and their tiers.
func Catalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: "command-nightly", Tier: model.TierAdvanced},
		{ID: "command-light-nightly", Tier: model.TierStandard},
	}
}
