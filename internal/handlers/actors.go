package handlers

import (
	"encoding/json"
	"errors"

	"github.com/fedgroup/backend/internal/activitypub"
	"github.com/fedgroup/backend/internal/services"
	"github.com/fedgroup/backend/pkg/logger"
	"github.com/fedgroup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// ActorsHandler serves the federation surface: actor documents, the inbox,
// follower collections, and permanent announce dereference. Inbound inbox
// requests are assumed signature-verified by the fronting layer; the actor
// field is trusted here.
type ActorsHandler struct {
	actors     *services.ActorService
	membership *services.MembershipService
	announcer  *services.Announcer
	ledger     *services.Ledger
	iris       *activitypub.IRIs
}

func NewActorsHandler(actors *services.ActorService, membership *services.MembershipService, announcer *services.Announcer, ledger *services.Ledger, iris *activitypub.IRIs) *ActorsHandler {
	return &ActorsHandler{
		actors:     actors,
		membership: membership,
		announcer:  announcer,
		ledger:     ledger,
		iris:       iris,
	}
}

func (h *ActorsHandler) Get(c *fiber.Ctx) error {
	group, err := h.actors.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "actor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed resolving actor")
	}

	return activityJSON(c, fiber.StatusOK, &activitypub.ActorDocument{
		Context:   activitypub.Context,
		ID:        h.iris.Actor(group.ID),
		Type:      "Group",
		Name:      group.Name,
		Summary:   group.Summary,
		Inbox:     h.iris.Inbox(group.ID),
		Followers: h.iris.Followers(group.ID),
	})
}

func (h *ActorsHandler) Inbox(c *fiber.Ctx) error {
	group, err := h.actors.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "actor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed resolving actor")
	}

	var activity activitypub.Activity
	if err := json.Unmarshal(c.Body(), &activity); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity document")
	}
	if activity.Type() == "" {
		return utils.Error(c, fiber.StatusBadRequest, "activity type is required")
	}
	if activity.Actor() == "" {
		return utils.Error(c, fiber.StatusBadRequest, "activity actor is required")
	}

	result, err := h.actors.Process(c.UserContext(), group, activity)
	if err != nil {
		return rejectionError(c, err)
	}

	return activityJSON(c, fiber.StatusOK, result)
}

func (h *ActorsHandler) Followers(c *fiber.Ctx) error {
	group, err := h.actors.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "actor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed resolving actor")
	}

	collection, err := h.membership.Followers(c.UserContext(), group)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing followers")
	}
	collection.Context = activitypub.Context

	return activityJSON(c, fiber.StatusOK, collection)
}

func (h *ActorsHandler) Announce(c *fiber.Ctx) error {
	announce, err := h.ledger.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrAnnounceNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "announce not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading announce")
	}

	record := h.announcer.Serialize(announce)
	record.Context = activitypub.Context

	return activityJSON(c, fiber.StatusOK, record)
}

// rejectionError maps handler rejections onto HTTP statuses.
func rejectionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrWrongTarget),
		errors.Is(err, services.ErrInconsistentActivity),
		errors.Is(err, services.ErrMissingObject):
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotAMember):
		return utils.Error(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrGroupNotFound):
		return utils.Error(c, fiber.StatusNotFound, err.Error())
	default:
		logger.Error("activity_processing_failed", map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed processing activity")
	}
}
