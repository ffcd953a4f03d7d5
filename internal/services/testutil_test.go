package services

import (
	"context"
	"sync"
	"testing"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/database"
	"github.com/fedgroup/backend/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testBaseURL = "https://groups.test"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func testIRIs(t *testing.T) *activitypub.IRIs {
	t.Helper()

	iris, err := activitypub.NewIRIs(testBaseURL)
	if err != nil {
		t.Fatalf("failed building IRIs: %v", err)
	}
	return iris
}

type recordingDeliverer struct {
	mu         sync.Mutex
	accepts    int
	deliveries []delivery
}

type delivery struct {
	recipients  []string
	objectID    string
	announceIRI string
}

func (r *recordingDeliverer) EmitAccept(_ context.Context, _ *models.Group, _ string, _ activitypub.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepts++
}

func (r *recordingDeliverer) Deliver(_ context.Context, recipients []string, objectID, announceIRI string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{
		recipients:  append([]string{}, recipients...),
		objectID:    objectID,
		announceIRI: announceIRI,
	})
}

func (r *recordingDeliverer) acceptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepts
}

func (r *recordingDeliverer) deliverCalls() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery{}, r.deliveries...)
}

func createGroup(t *testing.T, db *gorm.DB, id string) *models.Group {
	t.Helper()

	group := &models.Group{ID: id, Name: id, Summary: ""}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating group: %v", err)
	}
	return group
}
