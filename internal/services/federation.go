package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/pkg/logger"
	gocache "github.com/patrickmn/go-cache"
)

// Deliverer is the outbound side of federation. Implementations own network
// delivery entirely: the actor core requests delivery and moves on, it never
// learns whether individual recipients were reached.
type Deliverer interface {
	// EmitAccept sends an Accept for the follower's original activity back
	// to the follower's inbox. Called once per first-time Follow.
	EmitAccept(ctx context.Context, group *models.Group, followerID string, original activitypub.Activity)

	// Deliver fans the announce out to every recipient inbox, best effort.
	// Must not block the caller on network work.
	Deliver(ctx context.Context, recipients []string, objectID, announceIRI string)
}

const activityContentType = "application/activity+json"

// FederationClient delivers ActivityStreams documents to remote inboxes over
// plain HTTP. Request signing is owned by the deployment's key store and
// happens in an http.Client transport when configured; this client only
// builds and posts documents.
type FederationClient struct {
	iris    *activitypub.IRIs
	client  *http.Client
	timeout time.Duration
	actors  *gocache.Cache
}

func NewFederationClient(iris *activitypub.IRIs, timeout, actorCacheTTL time.Duration) *FederationClient {
	return &FederationClient{
		iris:    iris,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		actors:  gocache.New(actorCacheTTL, 2*actorCacheTTL),
	}
}

func (f *FederationClient) EmitAccept(ctx context.Context, group *models.Group, followerID string, original activitypub.Activity) {
	accept := map[string]interface{}{
		"@context": activitypub.Context,
		"type":     "Accept",
		"actor":    f.iris.Actor(group.ID),
		"object":   map[string]interface{}(original),
		"to":       []string{followerID},
	}

	go f.send(followerID, accept)
}

func (f *FederationClient) Deliver(ctx context.Context, recipients []string, objectID, announceIRI string) {
	for _, recipient := range recipients {
		announce := map[string]interface{}{
			"@context": activitypub.Context,
			"id":       announceIRI,
			"type":     models.AnnounceType,
			"object":   objectID,
			"to":       []string{recipient},
		}
		go f.send(recipient, announce)
	}
}

// send resolves the recipient's inbox and posts the document. Runs detached
// from the originating request, so it carries its own deadline.
func (f *FederationClient) send(actorIRI string, document map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	inbox, err := f.inboxFor(ctx, actorIRI)
	if err != nil {
		logger.Warn("federation_inbox_discovery_failed", map[string]interface{}{
			"actor": actorIRI,
			"error": err.Error(),
		})
		return
	}

	if err := f.post(ctx, inbox, document); err != nil {
		logger.Warn("federation_delivery_failed", map[string]interface{}{
			"actor": actorIRI,
			"inbox": inbox,
			"type":  document["type"],
			"error": err.Error(),
		})
		return
	}

	logger.Debug("federation_delivered", map[string]interface{}{
		"actor": actorIRI,
		"inbox": inbox,
		"type":  document["type"],
	})
}

// inboxFor fetches the remote actor document and extracts its inbox URL.
// Documents are cached with a TTL so a fan-out to N members does not refetch
// the same actors on every announce.
func (f *FederationClient) inboxFor(ctx context.Context, actorIRI string) (string, error) {
	if cached, ok := f.actors.Get(actorIRI); ok {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, actorIRI, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", activityContentType)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("actor fetch returned status %d", resp.StatusCode)
	}

	var doc struct {
		Inbox string `json:"inbox"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding actor document: %w", err)
	}
	if doc.Inbox == "" {
		return "", fmt.Errorf("actor document has no inbox")
	}

	f.actors.SetDefault(actorIRI, doc.Inbox)
	return doc.Inbox, nil
}

func (f *FederationClient) post(ctx context.Context, inbox string, document map[string]interface{}) error {
	body, err := json.Marshal(document)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inbox, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", activityContentType)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("inbox returned status %d", resp.StatusCode)
	}
	return nil
}
