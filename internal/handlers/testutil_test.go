package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/database"
	"github.com/fedgroup/backend/internal/middleware"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/internal/services"
	"github.com/fedgroup/backend/pkg/logger"
	"github.com/fedgroup/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// testBaseURL is the external URL the test server pretends to be hosted at;
// activities must target IRIs minted under it.
const testBaseURL = "https://groups.test"

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	iris      *activitypub.IRIs
	deliverer *fakeDeliverer
}

// fakeDeliverer records delivery requests instead of performing network
// fan-out, so tests can assert on recipient sets and accept emissions.
type fakeDeliverer struct {
	mu      sync.Mutex
	accepts []acceptCall
	fanouts []fanoutCall
}

type acceptCall struct {
	GroupID    string
	FollowerID string
}

type fanoutCall struct {
	Recipients  []string
	ObjectID    string
	AnnounceIRI string
}

func (f *fakeDeliverer) EmitAccept(_ context.Context, group *models.Group, followerID string, _ activitypub.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepts = append(f.accepts, acceptCall{GroupID: group.ID, FollowerID: followerID})
}

func (f *fakeDeliverer) Deliver(_ context.Context, recipients []string, objectID, announceIRI string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fanouts = append(f.fanouts, fanoutCall{
		Recipients:  append([]string{}, recipients...),
		ObjectID:    objectID,
		AnnounceIRI: announceIRI,
	})
}

func (f *fakeDeliverer) acceptCalls() []acceptCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]acceptCall{}, f.accepts...)
}

func (f *fakeDeliverer) fanoutCalls() []fanoutCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fanoutCall{}, f.fanouts...)
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

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

	iris, err := activitypub.NewIRIs(testBaseURL)
	if err != nil {
		t.Fatalf("failed building IRIs: %v", err)
	}

	deliverer := &fakeDeliverer{}
	membership := services.NewMembershipService(db, iris, deliverer)
	ledger := services.NewLedger(db)
	announcer := services.NewAnnouncer(membership, ledger, iris, deliverer)
	actors := services.NewActorService(db, membership, announcer)

	actorsHandler := NewActorsHandler(actors, membership, announcer, ledger, iris)
	groupsHandler := NewGroupsHandler(db, membership, ledger)
	authHandler := NewAuthHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/actors/:id", actorsHandler.Get)
	app.Post("/actors/:id/inbox", actorsHandler.Inbox)
	app.Get("/actors/:id/followers", actorsHandler.Followers)
	app.Get("/activity/announce/:id", actorsHandler.Announce)

	api := app.Group("/api")
	api.Post("/auth/login", authHandler.Login)
	api.Get("/auth/me", authMiddleware.RequireAuth, authHandler.Me)
	api.Post("/group", authMiddleware.RequireAuth, groupsHandler.Create)
	api.Get("/group/:name", groupsHandler.Get)
	api.Get("/group/:name/activity", authMiddleware.RequireAuth, groupsHandler.Activity)

	return &testEnv{app: app, db: db, iris: iris, deliverer: deliverer}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestGroup(t *testing.T, db *gorm.DB, id, name, summary string) *models.Group {
	t.Helper()

	group := &models.Group{ID: id, Name: name, Summary: summary}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func followActivity(actor, target string) map[string]any {
	return map[string]any{
		"type":   "Follow",
		"actor":  actor,
		"object": target,
	}
}

func undoFollowActivity(actor, target string) map[string]any {
	return map[string]any{
		"type":  "Undo",
		"actor": actor,
		"object": map[string]any{
			"type":   "Follow",
			"actor":  actor,
			"object": target,
		},
	}
}

func createActivity(actor string, object any) map[string]any {
	return map[string]any{
		"type":   "Create",
		"actor":  actor,
		"object": object,
	}
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func membershipCount(t *testing.T, db *gorm.DB, groupID, followerID string) int64 {
	t.Helper()

	var count int64
	err := db.Model(&models.Membership{}).
		Where("group_id = ? AND follower_id = ?", groupID, followerID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed counting memberships: %v", err)
	}
	return count
}
