package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Guard is a single authorization predicate over the principal. It
// returns nil to allow or a DomainError explaining the denial.
type Guard func(p *Principal) error

// RequireRole allows only principals whose role is exactly one of the
// listed roles. Role checks are exact-match, never hierarchical: an
// admin does not pass a support-only guard unless admin is listed too.
func RequireRole(allowed ...domain.Role) Guard {
	return func(p *Principal) error {
		if p == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range allowed {
			if p.Role == role {
				return nil
			}
		}
		return apperrors.NewForbidden("insufficient permissions")
	}
}

// RequireAuthenticated allows any authenticated principal.
func RequireAuthenticated() Guard {
	return func(p *Principal) error {
		if p == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return nil
	}
}

// Apply composes guards into a fiber handler. Guards run in order and
// the first denial short-circuits the chain.
func Apply(guards ...Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		for _, guard := range guards {
			if err := guard(principal); err != nil {
				return err
			}
		}
		return c.Next()
	}
}
