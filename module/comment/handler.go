package comment

import (
	"net/http"

	"GridSync/middleware"
	"GridSync/tools/errs"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the comment REST surface under rg (auth
// middleware already applied).
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	h := &handler{svc: svc}
	rg.GET("/spreadsheets/:id/comments", h.list)
	rg.POST("/spreadsheets/:id/comments", h.create)
	rg.POST("/comments/:id/replies", h.reply)
	rg.PUT("/comments/:id/resolve", h.resolve)
	rg.DELETE("/comments/:id", h.remove)
}

type handler struct {
	svc *Service
}

func author(c *gin.Context) Author {
	id := middleware.Identity(c)
	return Author{ID: id.UserID, Name: id.DisplayName}
}

func (h *handler) list(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

type createReq struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Content string `json:"content"`
}

func (h *handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondErr(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	out, err := h.svc.Create(c.Request.Context(), c.Param("id"), req.Row, req.Col, req.Content, author(c))
	if err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type replyReq struct {
	Content string `json:"content"`
}

func (h *handler) reply(c *gin.Context) {
	var req replyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondErr(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	out, err := h.svc.Reply(c.Request.Context(), c.Param("id"), req.Content, author(c))
	if err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type resolveReq struct {
	Resolved bool `json:"resolved"`
}

func (h *handler) resolve(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondErr(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	out, err := h.svc.Resolve(c.Request.Context(), c.Param("id"), req.Resolved)
	if err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID)); err != nil {
		middleware.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
