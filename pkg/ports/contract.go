package ports

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract is a reusable test suite that verifies an adapter
// complies with SessionStore. Adapters call it from their own tests.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadNonExistentSession", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent")
		assert.True(t, errors.Is(err, domain.ErrSessionNotFound), "expected ErrSessionNotFound, got %v", err)
	})

	t.Run("SaveAndLoadSession", func(t *testing.T) {
		s := domain.NewSession("contract-1", "pizza", time.Now().UTC())
		s.State = "CHOOSE_TOPPINGS"
		s.Data["crust"] = "Thin"
		s.Data["toppings"] = []string{"Ham", "Olives"}
		s.AddStep("crust_chosen", map[string]any{"crust": "Thin"})

		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, "pizza", loaded.Guide)
		assert.Equal(t, domain.StateName("CHOOSE_TOPPINGS"), loaded.State)
		assert.Equal(t, "Thin", loaded.Data["crust"])
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, "crust_chosen", loaded.Steps[0].Step)
	})

	t.Run("LoadedSessionIsIsolated", func(t *testing.T) {
		s := domain.NewSession("contract-2", "pizza", time.Now().UTC())
		s.Data["crust"] = "Thin"
		require.NoError(t, store.Save(ctx, s))

		s.Data["crust"] = "Thick"
		loaded, err := store.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Thin", loaded.Data["crust"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := domain.NewSession("contract-3", "triage", time.Now().UTC())
		require.NoError(t, store.Save(ctx, s))
		s.State = "VITAL_SIGNS"
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateName("VITAL_SIGNS"), loaded.State)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		sort.Strings(ids)
		assert.Subset(t, ids, []string{"contract-1", "contract-2", "contract-3"})
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "contract-1"))
		_, err := store.Load(ctx, "contract-1")
		assert.True(t, errors.Is(err, domain.ErrSessionNotFound), "expected ErrSessionNotFound after delete, got %v", err)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, "contract-1")

		// Deleting twice is fine.
		assert.NoError(t, store.Delete(ctx, "contract-1"))
	})
}
