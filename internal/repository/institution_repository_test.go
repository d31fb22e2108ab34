package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/fundalink/fundalink-api/internal/models"
)

func institutionDoc(mission string) bson.D {
	return bson.D{
		{Key: "_id", Value: models.InstitutionDocumentID},
		{Key: "mision", Value: mission},
		{Key: "contacto", Value: bson.D{{Key: "ciudad", Value: "Cali"}, {Key: "telefono", Value: "555-1234"}}},
		{Key: "redesSociales", Value: bson.D{{Key: "facebook", Value: "https://facebook.com/fundalink"}}},
	}
}

func TestInstitutionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get decodes sections", func(mt *mtest.T) {
		repo := NewInstitutionRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, institutionDoc("Formar técnicos")))

		inst, err := repo.Get(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, "Formar técnicos", inst.Mission)
		assert.Equal(mt, "Cali", inst.Contact.City)
	})

	mt.Run("get missing document", func(mt *mtest.T) {
		repo := NewInstitutionRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(context.Background())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})

	mt.Run("upsert returns updated document", func(mt *mtest.T) {
		repo := NewInstitutionRepository(mt.Coll)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: institutionDoc("Nueva misión")},
		})

		mission := "Nueva misión"
		inst, err := repo.Upsert(context.Background(), models.InstitutionUpdate{Mission: &mission}, "admin-1", time.Now())
		require.NoError(mt, err)
		assert.Equal(mt, "Nueva misión", inst.Mission)
	})

	mt.Run("merge section on missing document", func(mt *mtest.T) {
		repo := NewInstitutionRepository(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.MergeSection(context.Background(), models.SectionSocialNetworks, map[string]string{"instagram": "https://instagram.com/fundalink"}, "admin-1", time.Now())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})
}

func TestInstitutionSetOnlyIncludesSuppliedSections(t *testing.T) {
	vision := "Ser líderes"
	set := institutionSet(models.InstitutionUpdate{
		Vision:  &vision,
		Contact: &models.Contact{City: "Palmira"},
		Values:  []string{"Respeto"},
	})
	assert.Len(t, set, 3)
	assert.Equal(t, "Ser líderes", set[models.SectionVision])
	assert.Contains(t, set, models.SectionContact)
	assert.NotContains(t, set, models.SectionMission)
}

func TestDefaultsExceptSkipsSetKeys(t *testing.T) {
	set := bson.M{models.SectionMission: "x", "updatedAt": time.Now()}
	defaults, err := defaultsExcept(set, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, defaults, "_id")
	assert.NotContains(t, defaults, models.SectionMission)
	assert.NotContains(t, defaults, "updatedAt")
	assert.Contains(t, defaults, models.SectionVision)
	assert.Contains(t, defaults, "createdAt")
}
