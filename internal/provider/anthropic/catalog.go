package anthropic

import "github.com/davidbz/ensemble/internal/model"

// Catalog lists the models this family registers and their tiers.
func Catalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: "claude-2", Tier: model.TierPremium},
		{ID: "claude-instant-1", Tier: model.TierAdvanced},
	}
}
