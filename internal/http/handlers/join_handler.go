// Join request HTTP handlers.
//
// This file exposes REST endpoints for the join-request lifecycle:
//   - POST   /posts/{id}/join       (submit a join request)
//   - POST   /requests/{id}/resolve (owner accepts or denies)
//   - GET    /posts/{id}/requests   (owner lists the queue, paginated)
//   - GET    /requests              (requester lists own submissions)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including idempotent replays).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dlampros/go-meet-backend/internal/domain"
	"github.com/dlampros/go-meet-backend/internal/http/middleware"
	"github.com/dlampros/go-meet-backend/internal/repo"
	"github.com/dlampros/go-meet-backend/internal/services"
	"github.com/dlampros/go-meet-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// JoinService defines the join-request lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type JoinService interface {
	// Submit files a join request from requesterID against postID.
	Submit(ctx context.Context, postID, requesterID string) (*domain.JoinRequest, error)
	// Resolve applies the owner's accept/deny decision to a pending request.
	Resolve(ctx context.Context, requestID, actorID, action string) (*domain.JoinRequest, error)
	// ListForPost returns a page of requests against a post plus the total.
	ListForPost(ctx context.Context, postID, actorID string, page, pageSize int) ([]domain.JoinRequest, int64, error)
	// ListForUser returns a page of the user's own submissions plus the total.
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.JoinRequest, int64, error)
}

// PostService defines post lifecycle operations consumed by HTTP handlers.
type PostService interface {
	// Create publishes a new post owned by ownerID.
	Create(ctx context.Context, ownerID, title, groupName string, groupingEnabled bool, capacity *int) (*domain.Post, error)
	// Get returns the post by id.
	Get(ctx context.Context, id string) (*domain.Post, error)
}

// NotificationService defines in-app notification reads consumed by HTTP
// handlers.
type NotificationService interface {
	// ListPage returns a page of the recipient's notifications and the total.
	ListPage(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	// MarkRead marks one of the recipient's notifications as read.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

// SettingsService defines per-owner acceptance settings operations consumed
// by HTTP handlers.
type SettingsService interface {
	// Get returns the owner's settings, materializing defaults when absent.
	Get(ctx context.Context, ownerID string) (*domain.OwnerSettings, error)
	// Update sets the owner's acceptance mode.
	Update(ctx context.Context, ownerID, mode string) (*domain.OwnerSettings, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for posts, join requests, notifications,
// and owner settings. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	joinSvc     JoinService
	postSvc     PostService
	notifSvc    NotificationService
	settingsSvc SettingsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(joinSvc JoinService, postSvc PostService, notifSvc NotificationService, settingsSvc SettingsService) *Handlers {
	return &Handlers{joinSvc: joinSvc, postSvc: postSvc, notifSvc: notifSvc, settingsSvc: settingsSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// ResolveRequestBody is the JSON payload for resolving a join request.
type ResolveRequestBody struct {
	// Action is either "accept" or "deny".
	Action string `json:"action" binding:"required" example:"accept"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of join requests and pagination
// information.
type ListRequestsResponse struct {
	Requests   []domain.JoinRequest `json:"requests"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate computes the standard pagination envelope for a page of results.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// SubmitJoin godoc
// @ID          submitJoin
// @Summary     Request to join a post
// @Description Files a join request against the post. Depending on the owner's acceptance mode the request is immediately accepted (auto) or left pending for manual review. Supports Idempotency-Key replays.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Dedup key for safe retries"
// @Param       id               path    string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     201  {object}  domain.JoinRequest
// @Success     200  {object}  domain.JoinRequest  "Idempotent replay of a prior submission"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Owner cannot join their own post"
// @Failure     404  {object}  handlers.ErrorResponse "Post not found"
// @Failure     409  {object}  handlers.ErrorResponse "Duplicate active request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /posts/{id}/join [post]
func (h *Handlers) SubmitJoin(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}
	currentUser := userID(c)

	// Replay: serve the previously filed request instead of refusing the
	// retry as a duplicate.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	if idemKey != "" {
		if svc, okSvc := h.joinSvc.(*services.JoinService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, postID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetRequest(ctx, svc.DB, rec.RequestID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	req, err := h.joinSvc.Submit(ctx, postID, currentUser)
	if err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrSelfJoin:
			fail(c, http.StatusForbidden, ErrCodeSelfJoin, "cannot join your own post")
		case services.ErrDuplicateRequest:
			fail(c, http.StatusConflict, ErrCodeDuplicateRequest, "an active request already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	if idemKey != "" {
		if svc, okSvc := h.joinSvc.(*services.JoinService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, postID, idemKey, req.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, req)
}

// ResolveRequest godoc
// @ID          resolveRequest
// @Summary     Accept or deny a join request
// @Description Applies the post owner's decision to a pending request. Accepting reserves a slot atomically and fails with 409 when the group is full.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ResolveRequestBody  true  "Decision"
//
// @Success     200  {object}  domain.JoinRequest
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the post owner"
// @Failure     404  {object}  handlers.ErrorResponse "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse "Already resolved or capacity exceeded"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /requests/{id}/resolve [post]
func (h *Handlers) ResolveRequest(c *gin.Context) {
	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	var body ResolveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	action := strings.ToLower(strings.TrimSpace(body.Action))

	req, err := h.joinSvc.Resolve(c.Request.Context(), requestID, userID(c), action)
	if err != nil {
		switch err {
		case services.ErrInvalidAction:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action must be accept or deny")
		case services.ErrRequestNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrNotOwner:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the post owner may resolve requests")
		case services.ErrAlreadyResolved:
			fail(c, http.StatusConflict, ErrCodeAlreadyResolved, "request is no longer pending")
		case services.ErrCapacityExceeded:
			fail(c, http.StatusConflict, ErrCodeCapacityExceeded, "the group is already full")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, req)
}

// ListPostRequests godoc
// @ID          listPostRequests
// @Summary     List join requests for a post (owner only)
// @Description Returns a paginated page of requests filed against the post, newest first.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Post ID (UUID)"  format(uuid)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRequestsResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the post owner"
// @Failure     404  {object}  handlers.ErrorResponse "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /posts/{id}/requests [get]
func (h *Handlers) ListPostRequests(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.joinSvc.ListForPost(c.Request.Context(), postID, userID(c), page, pageSize)
	if err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrNotOwner:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the post owner may list requests")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListRequestsResponse{
		Requests:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// ListMyRequests godoc
// @ID          listMyRequests
// @Summary     List the current user's join requests
// @Description Returns a paginated page of the user's own submissions across all posts, newest first.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRequestsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListMyRequests(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.joinSvc.ListForUser(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListRequestsResponse{
		Requests:   items,
		Pagination: paginate(page, pageSize, total),
	})
}
