package server

import (
	"context"

	"github.com/gin-gonic/gin"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/internal/store"
)

type ctxKeySurvey struct{}

func contextWithSurvey(ctx context.Context, sv store.Survey) context.Context {
	return context.WithValue(ctx, ctxKeySurvey{}, sv)
}

func surveyFromContext(ctx context.Context) (store.Survey, bool) {
	sv, ok := ctx.Value(ctxKeySurvey{}).(store.Survey)
	return sv, ok
}

// loadSurvey resolves the :id path parameter, stores the survey in the
// request context and aborts with 404 when it does not exist.
func (s *Server) loadSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		sv, err := s.store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.storeError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(contextWithSurvey(c.Request.Context(), sv))
		c.Next()
	}
}

// diagnosticsPayload shapes diagnostics for JSON responses.
func diagnosticsPayload(ds surveyschema.Diagnostics) gin.H {
	return gin.H{"diagnostics": ds}
}

func errorPayload(err error) gin.H {
	return gin.H{"error": err.Error()}
}
