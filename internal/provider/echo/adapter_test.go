package echo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/provider/echo"
)

func TestBackend_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("should echo back the message contents", func(t *testing.T) {
		backend := echo.NewBackend()

		resp, err := backend.Complete(ctx, &domain.CompletionRequest{
			Model: "echo4",
			Messages: []domain.Message{
				{Role: "user", Content: "hello there"},
				{Role: "user", Content: "second line"},
			},
		})

		require.NoError(t, err)
		require.Equal(t, "hello there\nsecond line", resp.Content)
		require.Equal(t, "echo", resp.Provider)
		require.Equal(t, "echo4", resp.Model)
		require.Equal(t, 4, resp.Usage.PromptTokens)
		require.Equal(t, 8, resp.Usage.TotalTokens)
	})

	t.Run("should reject a nil request", func(t *testing.T) {
		backend := echo.NewBackend()
		_, err := backend.Complete(ctx, nil)
		require.Error(t, err)
	})
}

func TestBackend_Name(t *testing.T) {
	require.Equal(t, "echo", echo.NewBackend().Name())
}
