package echo

import "github.com/davidbz/ensemble/internal/model"

// Catalog lists the models this family registers and their tiers.
func Catalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: "echo", Tier: model.TierBasic},
	}
}
