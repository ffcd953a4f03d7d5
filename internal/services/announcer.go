package services

import (
	"context"
	"encoding/json"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/pkg/logger"
	"github.com/google/uuid"
)

// Announcer runs the create→fan-out pipeline: it gates publishing on
// membership, computes the recipient set, requests delivery, and appends the
// immutable ledger record. Membership is the only gate; the announced
// object is not checked for authorship.
type Announcer struct {
	membership *MembershipService
	ledger     *Ledger
	iris       *activitypub.IRIs
	deliverer  Deliverer
}

func NewAnnouncer(membership *MembershipService, ledger *Ledger, iris *activitypub.IRIs, deliverer Deliverer) *Announcer {
	return &Announcer{membership: membership, ledger: ledger, iris: iris, deliverer: deliverer}
}

// AnnounceRecord is the serialized form of a ledger row, packaged for a
// protocol response.
type AnnounceRecord struct {
	Context string      `json:"@context,omitempty"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  interface{} `json:"object"`
}

// Create handles an inbound Create activity from a member. The ledger append
// records "this was announced" and happens regardless of delivery outcome;
// delivery itself is fire-and-forget.
func (a *Announcer) Create(ctx context.Context, group *models.Group, activity activitypub.Activity) (*AnnounceRecord, error) {
	objectID, ok := activity.ObjectID()
	if !ok {
		return nil, ErrMissingObject
	}

	actor := activity.Actor()

	members, err := a.membership.MemberIDs(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(members))
	isMember := false
	for _, member := range members {
		if member == actor {
			isMember = true
			continue
		}
		recipients = append(recipients, member)
	}
	if !isMember {
		return nil, ErrNotAMember
	}

	announceID := uuid.NewString()
	announceIRI := a.iris.Announce(announceID)

	a.deliverer.Deliver(ctx, recipients, objectID, announceIRI)

	object, err := json.Marshal(objectID)
	if err != nil {
		return nil, err
	}
	announce := &models.Announce{
		ID:      announceID,
		Type:    models.AnnounceType,
		GroupID: group.ID,
		Object:  string(object),
	}
	if err := a.ledger.Append(ctx, announce); err != nil {
		return nil, err
	}

	logger.Info("announce_created", map[string]interface{}{
		"group_id":    group.ID,
		"announce_id": announceID,
		"actor":       actor,
		"recipients":  len(recipients),
	})

	return a.Serialize(announce), nil
}

// Serialize renders a ledger row with its external identifiers.
func (a *Announcer) Serialize(announce *models.Announce) *AnnounceRecord {
	var object interface{}
	if err := json.Unmarshal([]byte(announce.Object), &object); err != nil {
		// Ledger rows are written by Create and never mutated; a decode
		// failure means the stored payload predates the current format.
		object = announce.Object
	}

	return &AnnounceRecord{
		ID:     a.iris.Announce(announce.ID),
		Type:   announce.Type,
		Actor:  a.iris.Actor(announce.GroupID),
		Object: object,
	}
}
