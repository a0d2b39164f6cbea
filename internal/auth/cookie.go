package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CredentialCookie is the server-edge view of the credential store: the same
// cookie the session client sends back on every request.
type CredentialCookie struct {
	Name   string
	Secure bool
}

// Get returns the raw credential, or "" when none was sent.
func (cc CredentialCookie) Get(c *fiber.Ctx) string {
	return c.Cookies(cc.Name)
}

// Clear instructs the client to drop the credential.
func (cc CredentialCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
