package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/liftlog/internal/domain"
)

// Context keys for storing user info
const (
	UserIDKey   = "userID"
	RolesKey    = "roles"
	TenantIDKey = "tenant_id"
)

// VerifyToken validates the HS256 access token and stores its claims in the context
func VerifyToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format, expected 'Bearer <token>'",
			})
		}

		token, err := jwt.ParseWithClaims(tokenString, &domain.LiftlogClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*domain.LiftlogClaims)
		if !ok || !token.Valid || claims.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(RolesKey, claims.Roles)
		c.Locals(TenantIDKey, claims.TenantID)

		return c.Next()
	}
}

// AuthorizeRole checks if user has at least one of the required roles
func AuthorizeRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRoles := GetRoles(c)
		if len(userRoles) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No roles found in token",
			})
		}

		for _, userRole := range userRoles {
			for _, allowedRole := range allowedRoles {
				if userRole == allowedRole {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          "Insufficient permissions",
			"required_roles": allowedRoles,
		})
	}
}

// TenantScope requires coaches to belong to a tenant. Members may train solo.
func TenantScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user context",
			})
		}

		for _, role := range GetRoles(c) {
			if role == domain.RoleCoach && GetTenantID(c) == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Coach must belong to a tenant",
				})
			}
		}

		return c.Next()
	}
}

// GetUserID extracts the user ID from Fiber context
// Should only be called after VerifyToken
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetTenantID(c *fiber.Ctx) string {
	tenantID, _ := c.Locals(TenantIDKey).(string)
	return tenantID
}

func GetRoles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(RolesKey).([]string)
	return roles
}
