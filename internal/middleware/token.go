package middleware

import (
	"strings"

	jwtPkg "SalonAssistant/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)
	authHeader := ctx.Get("Authorization")

	unauthorized := func(reason string) error {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      reason,
		}).Warn("Operator authentication failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, access token invalid or expired",
		})
	}

	if authHeader == "" {
		return unauthorized("authorization header is missing")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return unauthorized("authorization header format is invalid")
	}

	token, err := jwtPkg.VerifyTokenHeader(ctx, jwtPkg.AccessTokenSecret)
	if err != nil {
		return unauthorized(err.Error())
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized("invalid token claims")
	}

	operator, err := jwtPkg.OperatorFromClaims(claims)
	if err != nil {
		return unauthorized(err.Error())
	}
	ctx.Locals(jwtPkg.OperatorLocalsKey, operator)

	m.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"operator_id": operator.ID,
	}).Debug("Operator authenticated")
	return ctx.Next()
}
