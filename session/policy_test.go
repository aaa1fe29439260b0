package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/moviescraper/access"
	"github.com/pevans/moviescraper/quota"
)

func TestPublicPolicy(t *testing.T) {
	p := PublicPolicy()

	assert.Equal(t, "public", p.Name)
	assert.Equal(t, "movies.json", p.Output)
	assert.Equal(t, time.Second, p.ItemDelay)
	assert.Equal(t, 2*time.Second, p.PageDelay)
	assert.Nil(t, p.Authorize)
	assert.Nil(t, p.Enrich)

	for requested, want := range map[int]int{0: 0, 1: 1, 3: 3, 10: 3} {
		got, err := p.Budget(requested)
		require.NoError(t, err)
		assert.Equal(t, want, got, "requested %d", requested)
	}
}

func TestAdminPolicy(t *testing.T) {
	v, err := access.NewVerifier("key")
	require.NoError(t, err)
	p := AdminPolicy(v)

	assert.Equal(t, "admin_movies.json", p.Output)
	assert.Equal(t, 500*time.Millisecond, p.ItemDelay)
	assert.Equal(t, time.Second, p.PageDelay)
	assert.NotNil(t, p.Enrich)
	assert.NoError(t, p.Authorize("key"))
	assert.ErrorIs(t, p.Authorize("other"), access.ErrAccessDenied)

	got, err := p.Budget(25)
	require.NoError(t, err)
	assert.Equal(t, 25, got)
}

func TestUserPolicy(t *testing.T) {
	q, err := quota.New(quota.Options{})
	require.NoError(t, err)
	p := UserPolicy(q)

	assert.Equal(t, "user_movies.json", p.Output)
	assert.Equal(t, 2*time.Second, p.ItemDelay)
	assert.Equal(t, 3*time.Second, p.PageDelay)

	got, err := p.Budget(7)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	require.NoError(t, p.PageDone())
	require.NoError(t, p.PageDone())
	_, err = p.Budget(1)
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
}
