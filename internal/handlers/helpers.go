package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// activityJSON writes a federation response with the ActivityStreams media
// type. c.JSON would force application/json, so the body is marshaled here.
func activityJSON(c *fiber.Ctx, status int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/activity+json")
	return c.Status(status).Send(body)
}
