package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "programs:list", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "programs:list", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "programs:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}

func TestCacheKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "fundalink:faqs:public", namespaced("faqs:public"))
	assert.Equal(t, "fundalink:programs:*", namespaced("programs:*"))
}
