package router

import (
	"context"

	openapi "communities/messages/api"
	"communities/messages/pkg/validator"

	"github.com/gin-gonic/gin"
)

// AddOpenAPIValidation validates requests on the group against the embedded OpenAPI document
func (r *Router) AddOpenAPIValidation(group *gin.RouterGroup) error {
	v, err := validator.NewOpenAPIValidator(context.Background(), openapi.OpenAPISpec)
	if err != nil {
		return err
	}

	group.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled")
	return nil
}
