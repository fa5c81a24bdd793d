package membership

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	usecase "github.com/roomkit/api/application/usecases/membership"
	"github.com/roomkit/api/domain/apperrors"
	"github.com/roomkit/api/domain/model"
	"github.com/roomkit/api/presentation/middlewares"
)

type MembershipController interface {
	AddUser(ctx *gin.Context)
	UpdateUser(ctx *gin.Context)
	ListUsers(ctx *gin.Context)
}

type membershipController struct {
	usecase usecase.MembershipUseCase
}

func NewMembershipController(usecase usecase.MembershipUseCase) MembershipController {
	return &membershipController{
		usecase: usecase,
	}
}

func (c *membershipController) AddUser(ctx *gin.Context) {
	var req AddUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}

	user, err := c.usecase.AddUser(
		ctx.Request.Context(),
		ctx.Param("roomId"),
		req.UserName,
		ctx.GetHeader("password"),
	)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

func (c *membershipController) UpdateUser(ctx *gin.Context) {
	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}

	user, err := c.usecase.UpdateUser(
		ctx.Request.Context(),
		ctx.Param("roomId"),
		ctx.Param("userId"),
		req.UserID,
		req.UserName,
		ctx.GetHeader("password"),
	)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

func (c *membershipController) ListUsers(ctx *gin.Context) {
	users, err := c.usecase.ListUsers(
		ctx.Request.Context(),
		ctx.Param("roomId"),
		ctx.GetHeader("password"),
		atoiOrZero(ctx.Query("offset")),
		atoiOrZero(ctx.Query("limit")),
	)
	if err != nil {
		respondError(ctx, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}

	ctx.JSON(http.StatusOK, out)
}

// respondError is the single place membership pipeline errors become HTTP
// responses: one response per failure, with a machine-readable kind.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrParamsMismatch):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "params_mismatch",
			Message: "Params mismatch",
		})
	case errors.Is(err, apperrors.ErrRoomFull):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "room_capacity_exceeded",
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrBadPassword):
		ctx.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_password",
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrRoomNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "room_not_found",
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrUserNotInRoom):
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_in_room",
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "user_not_found",
			Message: err.Error(),
		})
	default:
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "store_failure",
			Message: "unexpected store failure",
		})
	}
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		UserID:    user.UserID,
		UserName:  user.UserName,
		RoomID:    user.RoomID,
		CreatedAt: user.CreatedAt,
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
