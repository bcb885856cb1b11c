package api

import "time"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string    `json:"status"`
	Records     int       `json:"records"`
	Capacity    int       `json:"capacity"`
	Subscribers int       `json:"subscribers"`
	UptimeSec   int64     `json:"uptimeSec"`
	Timestamp   time.Time `json:"timestamp"`
}

// ClearResponse is the body of DELETE /api/requests.
type ClearResponse struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}
