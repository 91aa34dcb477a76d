package types

type HeartbeatRequest struct {
	ModuleID        string `json:"module_id"`
	FirmwareVersion string `json:"fw_version,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_s,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool   `json:"ok"`
	Known      bool   `json:"known"`
	ModuleID   string `json:"module_id"`
	ServerTime string `json:"server_time"`
}
