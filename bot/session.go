package bot

import (
	"net/http"

	"post-assist-bot/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie puts the caller's session id into the context, issuing a
// new one when the cookie is missing or not a uuid.
func SessionCookie(name string, maxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(name)
		id, parseErr := uuid.Parse(raw)
		if err != nil || parseErr != nil {
			id = uuid.New()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     name,
				Value:    id.String(),
				Path:     "/",
				MaxAge:   maxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(database.CTX_SESSION_ID, id.String())
		c.Next()
	}
}
