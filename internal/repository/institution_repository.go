package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fundalink/fundalink-api/internal/models"
)

// InstitutionCollection holds the singleton institution document.
const InstitutionCollection = "institution_info"

// InstitutionRepository stores institution information in MongoDB.
type InstitutionRepository struct {
	collection *mongo.Collection
}

// NewInstitutionRepository constructs the repository over the given collection.
func NewInstitutionRepository(collection *mongo.Collection) *InstitutionRepository {
	return &InstitutionRepository{collection: collection}
}

func singletonFilter() bson.D {
	return bson.D{{Key: "_id", Value: models.InstitutionDocumentID}}
}

// Get returns the document. mongo.ErrNoDocuments is passed through.
func (r *InstitutionRepository) Get(ctx context.Context) (*models.Institution, error) {
	var inst models.Institution
	if err := r.collection.FindOne(ctx, singletonFilter()).Decode(&inst); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return &inst, nil
}

// Create inserts the document. A concurrent insert surfaces as a duplicate key error.
func (r *InstitutionRepository) Create(ctx context.Context, inst *models.Institution) error {
	inst.ID = models.InstitutionDocumentID
	if _, err := r.collection.InsertOne(ctx, inst); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// Upsert sets the supplied sections, creating the document from defaults when missing.
func (r *InstitutionRepository) Upsert(ctx context.Context, update models.InstitutionUpdate, updatedBy string, now time.Time) (*models.Institution, error) {
	set := institutionSet(update)
	set["updatedAt"] = now
	if updatedBy != "" {
		set["actualizadoPor"] = updatedBy
	}

	onInsert, err := defaultsExcept(set, now)
	if err != nil {
		return nil, err
	}

	doc := bson.M{"$set": set}
	if len(onInsert) > 0 {
		doc["$setOnInsert"] = onInsert
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var inst models.Institution
	if err := r.collection.FindOneAndUpdate(ctx, singletonFilter(), doc, opts).Decode(&inst); err != nil {
		return nil, fmt.Errorf("upsert institution: %w", err)
	}
	return &inst, nil
}

// MergeSection sets individual keys inside one section of an existing document.
// mongo.ErrNoDocuments is returned when the document does not exist.
func (r *InstitutionRepository) MergeSection(ctx context.Context, section string, fields map[string]string, updatedBy string, now time.Time) (*models.Institution, error) {
	set := bson.M{"updatedAt": now}
	for key, value := range fields {
		set[section+"."+key] = value
	}
	if updatedBy != "" {
		set["actualizadoPor"] = updatedBy
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var inst models.Institution
	if err := r.collection.FindOneAndUpdate(ctx, singletonFilter(), bson.M{"$set": set}, opts).Decode(&inst); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("merge institution %s: %w", section, err)
	}
	return &inst, nil
}

// Ping checks connectivity for readiness probes.
func (r *InstitutionRepository) Ping(ctx context.Context) error {
	if err := r.collection.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func institutionSet(u models.InstitutionUpdate) bson.M {
	set := bson.M{}
	if u.Mission != nil {
		set[models.SectionMission] = *u.Mission
	}
	if u.Vision != nil {
		set[models.SectionVision] = *u.Vision
	}
	if u.History != nil {
		set[models.SectionHistory] = *u.History
	}
	if u.Values != nil {
		set[models.SectionValues] = u.Values
	}
	if u.Objectives != nil {
		set[models.SectionObjectives] = *u.Objectives
	}
	if u.Rectorate != nil {
		set[models.SectionRectorate] = *u.Rectorate
	}
	if u.Contact != nil {
		set[models.SectionContact] = *u.Contact
	}
	if u.SocialNetworks != nil {
		set[models.SectionSocialNetworks] = *u.SocialNetworks
	}
	if u.Images != nil {
		set[models.SectionImages] = *u.Images
	}
	if u.Legal != nil {
		set[models.SectionLegal] = *u.Legal
	}
	if u.Accreditations != nil {
		set[models.SectionAccreditations] = u.Accreditations
	}
	if u.SEO != nil {
		set[models.SectionSEO] = *u.SEO
	}
	return set
}

// defaultsExcept renders the default document minus the keys already being set.
func defaultsExcept(set bson.M, now time.Time) (bson.M, error) {
	raw, err := bson.Marshal(models.DefaultInstitution(now))
	if err != nil {
		return nil, fmt.Errorf("marshal default institution: %w", err)
	}
	var defaults bson.M
	if err := bson.Unmarshal(raw, &defaults); err != nil {
		return nil, fmt.Errorf("unmarshal default institution: %w", err)
	}
	delete(defaults, "_id")
	for key := range set {
		delete(defaults, key)
	}
	return defaults, nil
}
