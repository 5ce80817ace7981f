package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/sync"
)

type SyncHandler struct {
	app *app.App
}

func NewSyncHandler(app *app.App) *SyncHandler {
	return &SyncHandler{app: app}
}

// Trigger starts a sync session. The default is fire-and-forget: the
// session runs in the background and the request is acknowledged with
// 202. With ?wait=true the request blocks and returns the session
// result. ?class=recipes restricts the session to one content class.
func (h *SyncHandler) Trigger(c *gin.Context) {
	engine := h.app.Engine()
	if engine.Running() {
		Reject(c, http.StatusConflict, CodeSyncRunning, sync.ErrSyncInProgress)
		return
	}

	var classes []content.Class
	if raw := c.Query("class"); raw != "" {
		class, err := content.ParseClass(raw)
		if err != nil {
			Reject(c, http.StatusBadRequest, CodeBadRequest, err)
			return
		}
		classes = []content.Class{class}
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		res := runSync(c.Request.Context(), engine, classes)
		if res.InProgress() {
			Reject(c, http.StatusConflict, CodeSyncRunning, sync.ErrSyncInProgress)
			return
		}
		c.PureJSON(http.StatusOK, res)
		return
	}

	// Detached from the request context so the session outlives the
	// response. The engine rejects overlap, a lost race is harmless.
	go func() {
		res := runSync(context.Background(), engine, classes)
		if !res.Success && !res.InProgress() {
			slog.Error("triggered sync failed", "error", res.Error)
		}
	}()

	c.PureJSON(http.StatusAccepted, Reply{Code: CodeSyncStarted})
}

func runSync(ctx context.Context, engine *sync.Engine, classes []content.Class) *sync.Result {
	if len(classes) == 1 {
		return engine.SyncClass(ctx, classes[0], nil)
	}
	return engine.Sync(ctx, nil)
}

// Result returns the outcome of the most recent completed session.
func (h *SyncHandler) Result(c *gin.Context) {
	res := h.app.Engine().LastResult()
	if res == nil {
		Reject(c, http.StatusNotFound, CodeNotFound, errors.New("no sync has completed yet"))
		return
	}
	c.PureJSON(http.StatusOK, res)
}
