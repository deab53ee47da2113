package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ActorHeader names the caller recorded in audit columns. Authentication is
// out of scope; the header is trusted as given.
const ActorHeader = "X-User"

func getActor(c *fiber.Ctx) string {
	if actor := strings.TrimSpace(c.Get(ActorHeader)); actor != "" {
		return actor
	}
	return "system"
}
