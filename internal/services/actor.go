package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/pkg/logger"
	"gorm.io/gorm"
)

// HandlerFunc processes one activity type against a resolved group. The
// returned value is the protocol response body; a rejection error is
// propagated to the route layer unwrapped.
type HandlerFunc func(ctx context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error)

// IgnoredResult is returned for activity types without a registered handler.
// Federated peers routinely send types this actor does not support; ignoring
// them is a success, not an error.
type IgnoredResult struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// ActorService is the group actor's dispatcher. The handler table is built
// once at construction; dispatch is an exact match on the activity's
// declared type. The dispatcher itself touches no storage beyond group
// resolution; side effects live in the handlers.
type ActorService struct {
	db       *gorm.DB
	handlers map[string]HandlerFunc
}

func NewActorService(db *gorm.DB, membership *MembershipService, announcer *Announcer) *ActorService {
	s := &ActorService{db: db}
	s.handlers = map[string]HandlerFunc{
		"Follow": func(ctx context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error) {
			return membership.Follow(ctx, group, activity)
		},
		"Undo": func(ctx context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error) {
			return membership.Undo(ctx, group, activity)
		},
		"Create": func(ctx context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error) {
			return announcer.Create(ctx, group, activity)
		},
		"Delete": s.delete,
	}
	return s
}

// Resolve looks up the group actor addressed by an inbound request.
func (s *ActorService) Resolve(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving group: %w", err)
	}
	return &group, nil
}

// Process dispatches an authenticated, decoded activity to its handler. The
// activity's actor has already been verified upstream to be the originator.
func (s *ActorService) Process(ctx context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error) {
	handler, ok := s.handlers[activity.Type()]
	if !ok {
		return s.ignore(group, activity)
	}
	return handler(ctx, group, activity)
}

func (s *ActorService) ignore(group *models.Group, activity activitypub.Activity) (interface{}, error) {
	logger.Info("activity_ignored", map[string]interface{}{
		"group_id": group.ID,
		"type":     activity.Type(),
		"actor":    activity.Actor(),
	})
	return &IgnoredResult{Status: "ignored", Type: activity.Type()}, nil
}

func (s *ActorService) delete(_ context.Context, group *models.Group, activity activitypub.Activity) (interface{}, error) {
	// Remote deletions of member content are acknowledged but tracked
	// nowhere: the ledger stores object identifiers, not content.
	logger.Info("delete_received", map[string]interface{}{
		"group_id": group.ID,
		"actor":    activity.Actor(),
	})
	return "done", nil
}
