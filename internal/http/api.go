package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookmarks-api/internal/domain"
	"bookmarks-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	users     service.UserService
	bookmarks service.BookmarkService
	exports   service.ExportService
	logger    *logrus.Logger
}

func NewHandler(
	authSvc service.AuthService,
	users service.UserService,
	bookmarks service.BookmarkService,
	exports service.ExportService,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		auth:      authSvc,
		users:     users,
		bookmarks: bookmarks,
		exports:   exports,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	useJSONFieldNames()
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/signup", h.signup)
		api.POST("/auth/signin", h.signin)
	}

	protected := api.Group("", h.requireAuth())
	{
		protected.GET("/users/me", h.getMe)
		protected.PATCH("/users", h.editMe)

		protected.GET("/bookmarks", h.listBookmarks)
		protected.GET("/bookmarks/:id", h.getBookmark)
		protected.POST("/bookmarks", h.createBookmark)
		protected.PATCH("/bookmarks/:id", h.editBookmark)
		protected.DELETE("/bookmarks/:id", h.deleteBookmark)

		protected.POST("/exports", h.createExport)
		protected.GET("/exports", h.listExports)
		protected.DELETE("/exports", h.purgeExports)
	}
}

type authRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type editUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type createBookmarkRequest struct {
	Title       string  `json:"title" binding:"required"`
	Link        string  `json:"link" binding:"required,url"`
	Description *string `json:"description"`
}

type editBookmarkRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1"`
	Link        *string `json:"link" binding:"omitempty,url"`
	Description *string `json:"description"`
}

func (h *Handler) signup(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	token, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": token})
}

func (h *Handler) signin(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	token, err := h.auth.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (h *Handler) getMe(c *gin.Context) {
	caller := callerFrom(c)

	user, err := h.users.GetSelf(c.Request.Context(), caller.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) editMe(c *gin.Context) {
	caller := callerFrom(c)

	var req editUserRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.users.EditSelf(c.Request.Context(), caller.UserID, domain.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) listBookmarks(c *gin.Context) {
	caller := callerFrom(c)

	bookmarks, err := h.bookmarks.List(c.Request.Context(), caller.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]BookmarkResponse, len(bookmarks))
	for i := range bookmarks {
		resp[i] = bookmarkToResponse(bookmarks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getBookmark(c *gin.Context) {
	caller := callerFrom(c)
	id, ok := bookmarkID(c)
	if !ok {
		return
	}

	bookmark, err := h.bookmarks.Get(c.Request.Context(), caller.UserID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if bookmark == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, bookmarkToResponse(*bookmark))
}

func (h *Handler) createBookmark(c *gin.Context) {
	caller := callerFrom(c)

	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	bookmark, err := h.bookmarks.Create(c.Request.Context(), caller.UserID, domain.NewBookmark{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmarkToResponse(*bookmark))
}

func (h *Handler) editBookmark(c *gin.Context) {
	caller := callerFrom(c)
	id, ok := bookmarkID(c)
	if !ok {
		return
	}

	var req editBookmarkRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.bindError(c, err)
		return
	}

	bookmark, err := h.bookmarks.Edit(c.Request.Context(), caller.UserID, id, domain.BookmarkPatch{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarkToResponse(*bookmark))
}

func (h *Handler) deleteBookmark(c *gin.Context) {
	caller := callerFrom(c)
	id, ok := bookmarkID(c)
	if !ok {
		return
	}

	if err := h.bookmarks.Delete(c.Request.Context(), caller.UserID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createExport(c *gin.Context) {
	caller := callerFrom(c)

	info, err := h.exports.Export(c.Request.Context(), caller.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exportToResponse(*info))
}

func (h *Handler) listExports(c *gin.Context) {
	caller := callerFrom(c)

	objects, err := h.exports.ListExports(c.Request.Context(), caller.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	caller := callerFrom(c)

	if err := h.exports.PurgeExports(c.Request.Context(), caller.UserID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bookmarkID parses the :id path segment, answering 400 when it is not a positive integer.
func bookmarkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bookmark id"})
		return 0, false
	}
	return id, true
}

// bindOptionalJSON binds a PATCH body, treating an empty body as an empty patch.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
