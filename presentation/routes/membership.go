package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roomkit/api/presentation/controllers/membership"
)

// MembershipRoutes mounts the room-scoped user routes. All three are gated
// by the room password header inside the pipeline, not by middleware.
func MembershipRoutes(router *gin.RouterGroup, controller membership.MembershipController) {
	users := router.Group("/rooms/:roomId/users")
	{
		users.POST("", controller.AddUser)
		users.PUT("/:userId", controller.UpdateUser)
		users.GET("", controller.ListUsers)
	}
}
