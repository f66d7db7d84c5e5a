package openai

import "github.com/davidbz/ensemble/internal/model"

// Catalog lists the models this family registers and their tiers.
func Catalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: "gpt-4", Tier: model.TierPremium},
		{ID: "gpt-4-turbo", Tier: model.TierAdvanced},
		{ID: "gpt-3.5-turbo", Tier: model.TierStandard},
		{ID: "gpt-3.5-turbo-16k", Tier: model.TierBasic},
	}
}
