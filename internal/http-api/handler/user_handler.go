package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers /users. The whole group requires a token;
// everything except /me additionally goes through the directory guard.
// The static /me segment wins over :username in the router, so "me"
// can never address another user even though it is also a valid path
// value (it is a reserved username anyway).
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, directoryGuard gin.HandlerFunc) {
	users := rg.Group("/users", requireAuth)
	users.GET("/me", h.Profile)
	users.PATCH("/me", h.UpdateProfile)

	admin := users.Group("", directoryGuard)
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:username", h.Get)
	admin.PATCH("/:username", h.Update)
	admin.DELETE("/:username", h.Delete)
}

// GET /api/v1/users/me
func (h *UserHandler) Profile(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	user, err := h.userService.Profile(c.Request.Context(), caller.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerFromContext(c)
	user, err := h.userService.UpdateProfile(c.Request.Context(), caller.ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /api/v1/users?search=...&page=1&page_size=20
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	users, err := h.userService.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.AdminUserPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateByUsername(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.DeleteByUsername(c.Request.Context(), c.Param("username")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
