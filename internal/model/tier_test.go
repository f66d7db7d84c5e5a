package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ensemble/internal/model"
)

func TestTier_Ordering(t *testing.T) {
	t.Run("should order tiers from premium down to basic", func(t *testing.T) {
		require.Equal(t, []model.Tier{
			model.TierPremium,
			model.TierAdvanced,
			model.TierStandard,
			model.TierBasic,
		}, model.TiersDescending())
	})

	t.Run("should never include the tier itself or higher tiers in Below", func(t *testing.T) {
		require.Equal(t, []model.Tier{
			model.TierAdvanced,
			model.TierStandard,
			model.TierBasic,
		}, model.TierPremium.Below())

		require.Equal(t, []model.Tier{model.TierBasic}, model.TierStandard.Below())
		require.Empty(t, model.TierBasic.Below())
	})

	t.Run("should return nil for an unknown tier", func(t *testing.T) {
		require.Nil(t, model.Tier(42).Below())
		require.False(t, model.Tier(42).Valid())
	})
}

func TestParseTier(t *testing.T) {
	t.Run("should parse known tier names", func(t *testing.T) {
		for name, want := range map[string]model.Tier{
			"basic":    model.TierBasic,
			"standard": model.TierStandard,
			"ADVANCED": model.TierAdvanced,
			" premium": model.TierPremium,
		} {
			tier, err := model.ParseTier(name)
			require.NoError(t, err)
			require.Equal(t, want, tier)
		}
	})

	t.Run("should reject unknown names", func(t *testing.T) {
		_, err := model.ParseTier("ultra")
		require.Error(t, err)
	})

	t.Run("should round-trip through String", func(t *testing.T) {
		for _, tier := range model.TiersDescending() {
			parsed, err := model.ParseTier(tier.String())
			require.NoError(t, err)
			require.Equal(t, tier, parsed)
		}
	})
}
