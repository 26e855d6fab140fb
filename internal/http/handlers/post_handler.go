// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - POST /posts      (publish)
//   - GET  /posts/{id} (fetch)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dlampros/go-meet-backend/internal/services"
)

// CreatePostRequest is the JSON payload for publishing a post.
type CreatePostRequest struct {
	// Title describes the activity (1–255 chars after trimming).
	Title string `json:"title" binding:"required" example:"Padel doubles, Tuesday evening"`
	// GroupName optionally names the group channel; a default is used when empty.
	GroupName string `json:"group_name" example:"Tuesday padel crew"`
	// GroupingEnabled opts accepted members into a shared group channel.
	GroupingEnabled bool `json:"grouping_enabled" example:"true"`
	// Capacity caps the number of accepted joiners; omit for unlimited.
	Capacity *int `json:"capacity" example:"3"`
}

// CreatePost godoc
// @ID          createPost
// @Summary     Publish a new post
// @Description Publishes a post for the current user and returns the post resource. Joiners file requests against it.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreatePostRequest  true  "Create post payload"
//
// @Success     201  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.postSvc.Create(c.Request.Context(), userID(c),
		strings.TrimSpace(req.Title), strings.TrimSpace(req.GroupName),
		req.GroupingEnabled, req.Capacity)
	if err != nil {
		switch err {
		case services.ErrEmptyTitle:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required")
		case services.ErrInvalidCapacity:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "capacity must be positive")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch a post
// @Description Returns the post resource, including its current member count and capacity.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	p, err := h.postSvc.Get(c.Request.Context(), postID)
	if err != nil {
		if err == services.ErrPostNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
