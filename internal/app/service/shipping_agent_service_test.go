package service

import (
	"context"
	"testing"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestShippingAgentService(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.shippingAgentService()
	ctx := context.Background()

	u1 := env.user(t, "u1", model.RoleUser)
	u2 := env.user(t, "u2", model.RoleUser)
	loner := env.user(t, "loner", model.RoleUser)
	admin := env.user(t, "staff", model.RoleAdmin)
	store1 := env.store(t, u1, "store1")
	store2 := env.store(t, u2, "store2")

	p1 := env.principal(t, u1)
	p2 := env.principal(t, u2)
	staff := env.principal(t, admin)

	var agent1 *model.ShippingAgent

	t.Run("Owner creates in their store context", func(t *testing.T) {
		var err error
		agent1, err = svc.CreateShippingAgent(ctx, p1, CreateShippingAgentInput{
			Name:         "FastShip",
			ContactInfo:  datatypes.JSONMap{"phone": "010-0000-0000"},
			ServiceAreas: datatypes.JSON(`["Seoul"]`),
		})
		require.NoError(t, err)
		assert.Equal(t, store1.ID, agent1.StoreID)
		assert.Equal(t, "Store store1", agent1.StoreName)
		assert.True(t, agent1.IsActive)
	})

	t.Run("Staff must name a store", func(t *testing.T) {
		_, err := svc.CreateShippingAgent(ctx, staff, CreateShippingAgentInput{Name: "Global"})
		require.Error(t, err)
		assert.Contains(t, apperrors.As(err).Fields, "store")

		inactive := false
		agent, err := svc.CreateShippingAgent(ctx, staff, CreateShippingAgentInput{
			Name: "SlowShip", StoreID: &store2.ID, IsActive: &inactive,
		})
		require.NoError(t, err)
		assert.Equal(t, store2.ID, agent.StoreID)
		assert.False(t, agent.IsActive)
	})

	t.Run("Owner cannot target another store", func(t *testing.T) {
		_, err := svc.CreateShippingAgent(ctx, p1, CreateShippingAgentInput{Name: "Sneaky", StoreID: &store2.ID})
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("User without a store has no context", func(t *testing.T) {
		_, err := svc.CreateShippingAgent(ctx, env.principal(t, loner), CreateShippingAgentInput{Name: "Nowhere"})
		require.Error(t, err)
		assert.Equal(t, apperrors.AuthzStoreContext, apperrors.As(err).Code)
	})

	t.Run("Anonymous is unauthorized", func(t *testing.T) {
		_, err := svc.ListShippingAgents(ctx, nil)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	})

	t.Run("Lists are scoped", func(t *testing.T) {
		mine, err := svc.ListShippingAgents(ctx, p1)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "FastShip", mine[0].Name)

		all, err := svc.ListShippingAgents(ctx, staff)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		none, err := svc.ListShippingAgents(ctx, env.principal(t, loner))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Other stores' agents look missing", func(t *testing.T) {
		_, err := svc.GetShippingAgent(ctx, p2, agent1.ID)
		assert.ErrorIs(t, err, ErrShippingAgentNotFound)

		_, err = svc.UpdateShippingAgent(ctx, p2, agent1.ID, model.ShippingAgentPatch{Name: strPtr("Mine")})
		assert.ErrorIs(t, err, ErrShippingAgentNotFound)

		err = svc.DeleteShippingAgent(ctx, p2, agent1.ID)
		assert.ErrorIs(t, err, ErrShippingAgentNotFound)
	})

	t.Run("Owner updates and deletes", func(t *testing.T) {
		rates := datatypes.JSON(`{"base": 3000}`)
		updated, err := svc.UpdateShippingAgent(ctx, p1, agent1.ID, model.ShippingAgentPatch{Rates: &rates})
		require.NoError(t, err)
		assert.Equal(t, "FastShip", updated.Name)
		assert.JSONEq(t, `{"base": 3000}`, string(updated.Rates))

		_, err = svc.UpdateShippingAgent(ctx, p1, agent1.ID, model.ShippingAgentPatch{Name: strPtr(" ")})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		require.NoError(t, svc.DeleteShippingAgent(ctx, p1, agent1.ID))
		_, err = svc.GetShippingAgent(ctx, staff, agent1.ID)
		assert.ErrorIs(t, err, ErrShippingAgentNotFound)
	})
}
