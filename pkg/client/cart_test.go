package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddAccumulates(t *testing.T) {
	cart := NewCart(NewMemStorage())

	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))
	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))
	require.NoError(t, cart.Add("b2", "Go Patterns", 30.00))

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.InDelta(t, 2*19.99+30.00, cart.Total(), 1e-9)
}

func TestCartSetQuantity(t *testing.T) {
	cart := NewCart(NewMemStorage())
	require.NoError(t, cart.Add("b1", "Learn Go", 10.00))

	require.NoError(t, cart.SetQuantity("b1", 5))
	assert.Equal(t, 5, cart.Items()[0].Quantity)

	// Zero removes the line.
	require.NoError(t, cart.SetQuantity("b1", 0))
	assert.Empty(t, cart.Items())

	// Setting quantity on an absent line is a no-op.
	require.NoError(t, cart.SetQuantity("missing", 3))
	assert.Empty(t, cart.Items())
}

func TestCartRemove(t *testing.T) {
	cart := NewCart(NewMemStorage())
	require.NoError(t, cart.Add("b1", "Learn Go", 10.00))
	require.NoError(t, cart.Remove("b1"))
	assert.Empty(t, cart.Items())
	assert.Zero(t, cart.Total())
}

func TestCartPersistsAcrossInstances(t *testing.T) {
	storage := NewMemStorage()

	first := NewCart(storage)
	require.NoError(t, first.Add("b1", "Learn Go", 19.99))
	require.NoError(t, first.Add("b2", "Go Patterns", 30.00))
	require.NoError(t, first.SetQuantity("b2", 3))

	second := NewCart(storage)
	items := second.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Learn Go", items[0].Title)
	assert.Equal(t, 3, items[1].Quantity)
	assert.InDelta(t, 19.99+3*30.00, second.Total(), 1e-9)
}

func TestCartSurvivesSessionClear(t *testing.T) {
	storage := NewMemStorage()
	session := NewSession(storage)
	cart := NewCart(storage)

	require.NoError(t, session.Set(&User{ID: "u1"}, "token-1"))
	require.NoError(t, cart.Add("b1", "Learn Go", 19.99))

	require.NoError(t, session.Clear())

	reloaded := NewCart(storage)
	require.Len(t, reloaded.Items(), 1)
	assert.Equal(t, "b1", reloaded.Items()[0].BookID)
}

func TestCartDiscardsCorruptState(t *testing.T) {
	storage := NewMemStorage()
	require.NoError(t, storage.Set(cartKey, []byte("not json")))

	cart := NewCart(storage)
	assert.Empty(t, cart.Items())
}
