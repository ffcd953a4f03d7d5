package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/fedgroup/backend/internal/middleware"
	"github.com/fedgroup/backend/internal/models"
	"github.com/fedgroup/backend/internal/services"
	"github.com/fedgroup/backend/pkg/logger"
	"github.com/fedgroup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Field limits are local policy, not protocol-mandated.
const (
	maxGroupIDLength      = 128
	maxGroupNameLength    = 256
	maxGroupSummaryLength = 2560
)

// GroupsHandler serves the administrative group API: registration and
// inspection. Group actors themselves are immutable once registered.
type GroupsHandler struct {
	DB         *gorm.DB
	membership *services.MembershipService
	ledger     *services.Ledger
}

func NewGroupsHandler(db *gorm.DB, membership *services.MembershipService, ledger *services.Ledger) *GroupsHandler {
	return &GroupsHandler{DB: db, membership: membership, ledger: ledger}
}

type createGroupRequest struct {
	GroupName string `json:"group_name"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.GroupName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "group_name is required")
	}
	if req.Name == "" {
		req.Name = req.GroupName
	}

	if len(req.GroupName) > maxGroupIDLength {
		return utils.Error(c, fiber.StatusBadRequest, "group_name too long")
	}
	if len(req.Name) > maxGroupNameLength {
		return utils.Error(c, fiber.StatusBadRequest, "name too long")
	}
	if len(req.Summary) > maxGroupSummaryLength {
		return utils.Error(c, fiber.StatusBadRequest, "summary too long")
	}

	group := models.Group{
		ID:      req.GroupName,
		Name:    req.Name,
		Summary: req.Summary,
	}

	result := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&group)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating group")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusForbidden, services.ErrGroupExists.Error())
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID,
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	group, err := h.findGroup(c.Params("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	members, err := h.membership.MemberIDs(c.UserContext(), group.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing members")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"group_name": group.ID,
		"name":       group.Name,
		"summary":    group.Summary,
		"members":    members,
	})
}

func (h *GroupsHandler) Activity(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	group, err := h.findGroup(c.Params("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	announces, err := h.ledger.ListByGroup(c.UserContext(), group.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing activity")
	}

	activity := make([]interface{}, 0, len(announces))
	for _, announce := range announces {
		var object interface{}
		if err := json.Unmarshal([]byte(announce.Object), &object); err != nil {
			object = announce.Object
		}
		activity = append(activity, object)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"group_name": group.ID,
		"name":       group.Name,
		"summary":    group.Summary,
		"activity":   activity,
	})
}

func (h *GroupsHandler) findGroup(name string) (*models.Group, error) {
	var group models.Group
	if err := h.DB.First(&group, "id = ?", strings.TrimSpace(name)).Error; err != nil {
		return nil, err
	}
	return &group, nil
}
