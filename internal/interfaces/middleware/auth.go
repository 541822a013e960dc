package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/registry/pkg/auth"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/errors"
)

func abort(c *gin.Context, err *errors.Error) {
	c.AbortWithStatusJSON(err.HTTPStatus(), errors.ToResponse(err))
}

// RequireAdmin validates the bearer token of admin API requests.
// The token subject is stored in the context under ContextKeyUser.
func RequireAdmin(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if header == "" {
			abort(c, errors.NewUnauthorizedError("no authorization token provided"))
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, errors.NewUnauthorizedError("invalid authorization header format"))
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			abort(c, errors.NewUnauthorizedError(err.Error()))
			return
		}
		if claims.Scope != auth.ScopeAdmin {
			abort(c, errors.NewPermissionError("use", "the admin API"))
			return
		}

		c.Set(constants.ContextKeyUser, claims.Subject)
		c.Next()
	}
}
