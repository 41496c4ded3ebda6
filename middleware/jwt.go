package middleware

import (
	"fmt"
	"strings"
	"time"

	"ninma/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "session"

const tokenTTL = 24 * time.Hour

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID, name, role, email string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"name":   name,
		"role":   role,
		"email":  email,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// SetSessionCookie stores the token as an HTTP-only cookie.
func SetSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(tokenTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// JWTMiddleware accepts a Bearer token or the session cookie and stores
// userId and role in the request locals.
func JWTMiddleware(c *fiber.Ctx) error {
	tokenString, msg := extractToken(c)
	if tokenString == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, msg, nil)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Token inválido ou expirado", nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Conteúdo do token inválido", nil)
	}
	userID, _ := claims["userId"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Conteúdo do token inválido", nil)
	}

	c.Locals("userId", userID)
	c.Locals("role", role)
	return c.Next()
}

func extractToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if cookie := c.Cookies(SessionCookie); cookie != "" {
			return cookie, ""
		}
		return "", "Cabeçalho Authorization ausente ou inválido"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Formato do cabeçalho Authorization inválido"
	}
	return strings.TrimPrefix(authHeader, "Bearer "), ""
}

// CurrentUser returns the identity stored by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (userID, role string) {
	userID, _ = c.Locals("userId").(string)
	role, _ = c.Locals("role").(string)
	return userID, role
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Verifique os campos do formulário!", errors)
}
