package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/peekd/peekd/pkg/filter"
	"github.com/peekd/peekd/pkg/httputil"
	"github.com/peekd/peekd/pkg/requestlog"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status:      "healthy",
		Records:     s.store.Count(),
		Capacity:    s.store.Cap(),
		Subscribers: s.store.Subscribers(),
		UptimeSec:   int64(time.Since(s.startedAt).Seconds()),
		Timestamp:   time.Now().UTC(),
	})
}

// handleListRequests serves GET /api/requests: the stored records, oldest
// to newest. `q` narrows by filter expression; `limit` keeps only the most
// recent N of the filtered result.
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	records := s.store.Snapshot()

	if q := r.URL.Query().Get("q"); q != "" {
		prog, err := filter.Compile(q)
		if err != nil {
			httputil.WriteBadRequest(w, "bad_filter", err.Error())
			return
		}
		filtered := make([]*requestlog.Record, 0, len(records))
		for _, rec := range records {
			if prog.Match(rec) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httputil.WriteBadRequest(w, "bad_limit", "limit must be a non-negative integer")
			return
		}
		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	if records == nil {
		records = []*requestlog.Record{}
	}
	httputil.WriteOK(w, records)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec := s.store.Get(id)
	if rec == nil {
		httputil.WriteNotFound(w, "not_found", "no record with id "+id)
		return
	}
	httputil.WriteOK(w, rec)
}

func (s *Server) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	cleared := s.store.Clear()
	s.log.Info("request log cleared", "cleared", cleared)
	httputil.WriteOK(w, ClearResponse{
		Message: "request log cleared",
		Cleared: cleared,
	})
}
