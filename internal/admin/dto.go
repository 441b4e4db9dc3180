// AngelaMos | 2026
// dto.go

package admin

type PageResponse struct {
	Message string `json:"message"`
	Viewer  string `json:"viewer"`
}

type StatsResponse struct {
	Content  ContentStats  `json:"content"`
	Database BackendStatus `json:"database"`
	Redis    BackendStatus `json:"redis"`
	Runtime  RuntimeStats  `json:"runtime"`
}

type ContentStats struct {
	Users int `json:"users"`
	Posts int `json:"posts"`
}

type BackendStatus struct {
	Healthy bool           `json:"healthy"`
	Pool    map[string]any `json:"pool,omitempty"`
}

type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	HeapBytes  uint64 `json:"heap_bytes"`
	NumGC      uint32 `json:"num_gc"`
}
