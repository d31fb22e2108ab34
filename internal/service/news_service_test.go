package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type fakeNewsRepo struct {
	items map[string]*models.News
}

func (f *fakeNewsRepo) List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	out := []models.News{}
	for _, n := range f.items {
		if n.Active {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNewsRepo) FindByID(ctx context.Context, id string) (*models.News, error) {
	n, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNewsRepo) Create(ctx context.Context, item *models.News) error {
	item.ID = "n-new"
	clone := *item
	f.items[item.ID] = &clone
	return nil
}

func (f *fakeNewsRepo) Update(ctx context.Context, item *models.News) error {
	clone := *item
	f.items[item.ID] = &clone
	return nil
}

func (f *fakeNewsRepo) Deactivate(ctx context.Context, id, updatedBy string) error {
	n, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.Active = false
	return nil
}

func TestNewsServiceCreateDefaults(t *testing.T) {
	repo := &fakeNewsRepo{items: map[string]*models.News{}}
	svc := NewNewsService(repo, nil, nil)
	editor := &models.Principal{ID: "u1", Kind: models.PrincipalUser, Role: models.RoleEditor, Name: "Laura Ruiz"}

	item, err := svc.Create(context.Background(), NewsRequest{Title: " Nuevas fechas ", Content: "Abrimos inscripciones"}, editor)
	require.NoError(t, err)
	assert.Equal(t, "Nuevas fechas", item.Title)
	assert.Equal(t, "Laura Ruiz", item.Author)
	assert.Equal(t, "General", item.Category)
	assert.True(t, item.Active)
	require.NotNil(t, item.CreatedBy)
	assert.Equal(t, "u1", *item.CreatedBy)

	_, err = svc.Create(context.Background(), NewsRequest{Title: "x", Content: "y", Category: "Deportes"}, editor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestNewsServiceUpdateAndDelete(t *testing.T) {
	repo := &fakeNewsRepo{items: map[string]*models.News{"n1": {ID: "n1", Title: "Viejo", Author: "Comunicaciones", Active: true}}}
	svc := NewNewsService(repo, nil, nil)
	admin := &models.Principal{ID: "u2", Kind: models.PrincipalUser, Role: models.RoleAdmin}

	item, err := svc.Update(context.Background(), "n1", NewsRequest{Title: "Nuevo", Content: "Texto", Author: "Comunicaciones", Category: "Académica", Featured: true}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", item.Title)
	assert.True(t, item.Featured)

	_, err = svc.Update(context.Background(), "missing", NewsRequest{Title: "Nuevo", Content: "Texto"}, admin)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), "n1", "u2"))
	_, err = svc.Get(context.Background(), "n1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	items, page, err := svc.List(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 10, page.Limit)
}
