package users

import (
	"socialstakes/service"

	"github.com/gin-gonic/gin"
)

type Feature struct {
	userService service.UserService
}

func New(userService service.UserService) *Feature {
	return &Feature{
		userService: userService,
	}
}

// RegisterRoutes mounts registration on the public group and the /me
// endpoints on the authenticated group
func (f *Feature) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/users", f.handleRegister)

	me := protected.Group("/users/me")
	me.GET("", f.handleMe)
	me.GET("/history", f.handleHistory)
	me.GET("/categories", f.handleCategories)
}
