// Package auth validates the API key on protected endpoints.
package auth

import "github.com/gofiber/fiber/v2"

// Header carries the caller's API key.
const Header = "X-Api-Key"

// New returns the middleware. An empty configured key disables the check.
func New(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" || c.Get(Header) == apiKey {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
	}
}
