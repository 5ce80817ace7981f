package handlers

// StatusResponse represents the health of the daemon.
type StatusResponse struct {
	Status    string        `json:"status"`    // health status ("ok").
	Timestamp string        `json:"ts"`        // timestamp when health check was performed.
	Version   string        `json:"version"`   // version of the client.
	Revision  string        `json:"revision"`  // revision of the client.
	BuildDate string        `json:"buildDate"` // build date of the client.
	Provider  *ProviderInfo `json:"provider,omitempty"`
	Sync      *SyncInfo     `json:"sync,omitempty"`
	Process   *ProcessInfo  `json:"process,omitempty"`
}

// ProviderInfo is the remote provider's view of its own connection.
type ProviderInfo struct {
	Name          string `json:"name"`
	Online        bool   `json:"online"`
	Authenticated bool   `json:"authenticated"`
	LastSync      string `json:"lastSync,omitempty"` // RFC3339, empty until a sync succeeded.
	Error         string `json:"error,omitempty"`
}

// SyncInfo summarizes the engine state without the per-class detail of
// the sync result endpoint.
type SyncInfo struct {
	Running bool `json:"running"`
}

// ProcessInfo carries best-effort stats about the daemon process.
type ProcessInfo struct {
	PID int32 `json:"pid"`
	// Resident set size in bytes.
	RSS uint64 `json:"rss"`
	// Percentage of total CPU the daemon is using.
	CPUPercent float64 `json:"cpuPercent"`
	// Percentage of total RAM the daemon is using.
	MemoryPercent float32 `json:"memoryPercent"`
	// How long the daemon has been running in milliseconds.
	Uptime int64 `json:"uptime"`
}
