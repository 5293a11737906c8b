package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/Stream/internal/adapters/rtc"
	"github.com/dkeye/Stream/internal/adapters/signal"
	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const defaultChatHistory = 50

type createStreamRequest struct {
	Title      string `json:"title" binding:"required,max=120"`
	StreamerID string `json:"streamerId" binding:"required,max=64"`
}

type streamView struct {
	domain.StreamRecord
	ViewerCount int `json:"viewerCount"`
}

func (a *API) view(rec domain.StreamRecord) streamView {
	return streamView{StreamRecord: rec, ViewerCount: a.Orch.Rooms.MemberCount(rec.ID)}
}

func (a *API) createStream(c *gin.Context) {
	var req createStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	streamer, err := domain.ParseIdentity(req.StreamerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid streamer"})
		return
	}
	rec, err := store.NewStreamRecord(req.Title, streamer, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.Store.CreateStream(c.Request.Context(), rec); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create stream")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("module", "adapters.http").Str("stream", string(rec.ID)).Str("streamer", string(streamer)).Msg("stream created")
	c.JSON(http.StatusCreated, gin.H{"stream": a.view(rec)})
}

func (a *API) listStreams(c *gin.Context) {
	recs, err := a.Store.ListStreams(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"streams": lo.Map(recs, func(r domain.StreamRecord, _ int) streamView { return a.view(r) })})
}

func (a *API) getStream(c *gin.Context) {
	rec, err := a.Store.GetStream(c.Request.Context(), domain.StreamID(c.Param("id")))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": a.view(rec)})
}

// endStream always tears the room down; the status code reports what
// happened to the record.
func (a *API) endStream(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))
	res, err := a.Orch.End(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found", "notified": res.Notified})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "notified": res.Notified})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Stream ended successfully.",
		"alreadyEnded": res.AlreadyEnded,
		"notified":     res.Notified,
	})
}

func (a *API) members(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))
	snap, ok := a.Orch.Rooms.Snapshot(id)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"streamId": id, "members": []any{}})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) chatHistory(c *gin.Context) {
	limit := defaultChatHistory
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	msgs, err := a.Store.ListChat(c.Request.Context(), domain.StreamID(c.Param("id")), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (a *API) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.Orch.Rooms.List()})
}

func (a *API) kick(c *gin.Context) {
	if !a.Orch.Kick(domain.StreamID(c.Param("id")), domain.Identity(c.Param("identity"))) {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.ICEServers(a.Cfg.ICEServers)})
}

type sessionRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

func (a *API) getSession(c *gin.Context) {
	name, _ := sessions.Default(c).Get(signal.SessionNameKey).(string)
	c.JSON(http.StatusOK, gin.H{"clientToken": c.GetString("client_token"), "displayName": name})
}

// putSession stores the default display name used when the WebSocket
// handshake carries none.
func (a *API) putSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name, err := domain.ParseDisplayName(req.DisplayName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := sessions.Default(c)
	s.Set(signal.SessionNameKey, string(name))
	if err := s.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"displayName": name})
}
