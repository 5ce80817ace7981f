package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/version"
)

// providerProbeTimeout caps the reachability check so a dead network
// cannot stall the status endpoint.
const providerProbeTimeout = 3 * time.Second

// StatusHandler serves the daemon health endpoint.
type StatusHandler struct {
	app *app.App
}

func NewStatusHandler(app *app.App) *StatusHandler {
	return &StatusHandler{
		app: app,
	}
}

// Status returns daemon health, provider reachability and process stats.
func (h *StatusHandler) Status(c *gin.Context) {
	if h.app == nil {
		c.PureJSON(http.StatusServiceUnavailable, &ErrorReply{
			Code:    CodeInternal,
			Message: "app not initialized",
		})
		return
	}

	c.PureJSON(http.StatusOK, &StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version.Version,
		Revision:  version.Revision,
		BuildDate: version.BuildDate,
		Provider:  h.providerInfo(c.Request.Context()),
		Sync: &SyncInfo{
			Running: h.app.Engine().Running(),
		},
		Process: processInfo(),
	})
}

func (h *StatusHandler) providerInfo(ctx context.Context) *ProviderInfo {
	p := h.app.Provider()
	if p == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, providerProbeTimeout)
	defer cancel()

	info := &ProviderInfo{Name: p.Name()}
	status, err := p.Status(ctx)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	info.Online = status.Online
	info.Authenticated = status.Authenticated
	if !status.LastSync.IsZero() {
		info.LastSync = status.LastSync.UTC().Format(time.RFC3339)
	}
	return info
}

// processInfo collects stats about the daemon's own process. Every
// field is best-effort; a nil return drops the block from the response.
func processInfo() *ProcessInfo {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}

	info := &ProcessInfo{PID: p.Pid}

	if memInfo, err := p.MemoryInfo(); err == nil && memInfo != nil {
		info.RSS = memInfo.RSS
	}
	if cpuPercent, err := p.CPUPercent(); err == nil {
		info.CPUPercent = cpuPercent
	}
	if memPercent, err := p.MemoryPercent(); err == nil {
		info.MemoryPercent = memPercent
	}
	if createTime, err := p.CreateTime(); err == nil {
		info.Uptime = time.Now().UnixMilli() - createTime
	}

	return info
}
