package notify

import (
	"net/http"
	"strconv"

	"GridSync/logger"
	"GridSync/middleware"
	"GridSync/service/storage"
	"GridSync/tools/errs"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the notification REST surface under rg. The
// auth middleware must already be applied to rg.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	h := &handler{svc: svc}
	rg.GET("/notifications", h.list)
	rg.GET("/notifications/unread-count", h.unreadCount)
	rg.POST("/notifications/:id/read", h.markRead)
	rg.POST("/notifications/read-all", h.markAllRead)
	rg.DELETE("/notifications/:id", h.remove)
	rg.POST("/notifications/subscribe", h.subscribe)
	rg.POST("/spreadsheets/:id/share", h.share)
}

type handler struct {
	svc *Service
}

func (h *handler) list(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": h.svc.Store().List(user, limit)})
}

func (h *handler) unreadCount(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	c.JSON(http.StatusOK, gin.H{"count": h.svc.Store().UnreadCount(user)})
}

func (h *handler) markRead(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	if err := h.svc.MarkRead(user, c.Param("id")); err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) markAllRead(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	h.svc.MarkAllRead(user)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) remove(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	if err := h.svc.Delete(user, c.Param("id")); err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type shareReq struct {
	UserID string `json:"userId"`
}

// share is the domain-event producer for spreadsheet sharing: the
// target user gets a share notification. The actual ACL change lives
// with external storage.
func (h *handler) share(c *gin.Context) {
	var req shareReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		middleware.RespondErr(c, errs.ErrValidation.WithDetail("missing userId"))
		return
	}
	actor := middleware.Identity(c)
	n := h.svc.NotifyShare(req.UserID, actor.DisplayName, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

type subscribeReq struct {
	Endpoint string `json:"endpoint"`
}

// subscribe registers the user's push endpoint; one per user, last
// write wins. Stored in the redis mirror; a registration without the
// mirror is accepted and logged, matching the best-effort push policy.
func (h *handler) subscribe(c *gin.Context) {
	user := c.GetString(middleware.CtxUserID)
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Endpoint == "" {
		middleware.RespondErr(c, errs.ErrValidation.WithDetail("missing endpoint"))
		return
	}
	if !storage.Enabled() {
		logger.Warnf("[notify] push subscription dropped, redis disabled user=%s", user)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if err := storage.PushSubscribe(user, req.Endpoint); err != nil {
		middleware.RespondErr(c, errs.Upstream(err, "push subscribe"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
