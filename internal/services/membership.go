package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipService runs the per-(group, follower) membership state machine.
// Both transitions are single conditional writes: the database decides
// whether the edge existed, so concurrent duplicate deliveries of the same
// Follow or Undo cannot race a separate read.
type MembershipService struct {
	db        *gorm.DB
	iris      *activitypub.IRIs
	deliverer Deliverer
}

func NewMembershipService(db *gorm.DB, iris *activitypub.IRIs, deliverer Deliverer) *MembershipService {
	return &MembershipService{db: db, iris: iris, deliverer: deliverer}
}

// Follow admits the activity's actor into the group. Repeated delivery is a
// success no-op; the Accept is emitted only when the edge is first created.
func (s *MembershipService) Follow(ctx context.Context, group *models.Group, activity activitypub.Activity) (string, error) {
	follower := activity.Actor()

	target, _ := activity.ObjectID()
	if target != s.iris.Actor(group.ID) {
		return "", ErrWrongTarget
	}

	edge := models.Membership{FollowerID: follower, GroupID: group.ID}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "follower_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if result.Error != nil {
		return "", fmt.Errorf("creating membership: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.deliverer.EmitAccept(ctx, group, follower, activity)
		logger.Info("member_joined", map[string]interface{}{
			"group_id": group.ID,
			"follower": follower,
		})
	}

	return "done", nil
}

// Undo removes the membership created by a previous Follow. Undo of any
// other activity subtype is accepted and ignored, and undoing an absent
// membership is a success no-op.
func (s *MembershipService) Undo(ctx context.Context, group *models.Group, activity activitypub.Activity) (string, error) {
	follower := activity.Actor()

	action := activity.ObjectActivity()
	if action == nil || !strings.EqualFold(action.Type(), "Follow") {
		return "done", nil
	}

	if action.Actor() != follower {
		return "", ErrInconsistentActivity
	}

	target, _ := action.ObjectID()
	if target != s.iris.Actor(group.ID) {
		return "", ErrWrongTarget
	}

	result := s.db.WithContext(ctx).
		Where("group_id = ? AND follower_id = ?", group.ID, follower).
		Delete(&models.Membership{})
	if result.Error != nil {
		return "", fmt.Errorf("deleting membership: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info("member_left", map[string]interface{}{
			"group_id": group.ID,
			"follower": follower,
		})
	}

	return "done", nil
}

// IsMember reports whether the follower currently holds a membership edge.
func (s *MembershipService) IsMember(ctx context.Context, groupID, followerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("group_id = ? AND follower_id = ?", groupID, followerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("counting membership: %w", err)
	}
	return count > 0, nil
}

// MemberIDs enumerates the group's followers in edge-creation order.
func (s *MembershipService) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var followers []string
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("group_id = ?", groupID).
		Order("created_at").
		Pluck("follower_id", &followers).Error
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return followers, nil
}

// Followers renders the current membership as an OrderedCollection. Purely a
// read projection.
func (s *MembershipService) Followers(ctx context.Context, group *models.Group) (*activitypub.OrderedCollection, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("group_id = ?", group.ID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("counting members: %w", err)
	}

	items := []string{}
	if total > 0 {
		items, err = s.MemberIDs(ctx, group.ID)
		if err != nil {
			return nil, err
		}
	}

	return &activitypub.OrderedCollection{
		Type:         "OrderedCollection",
		TotalItems:   total,
		OrderedItems: items,
	}, nil
}
