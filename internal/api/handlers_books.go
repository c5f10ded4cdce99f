package api

import (
	"net/http"

	"github.com/dgallion1/bookgest/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type chapterSummary struct {
	Order     int    `json:"order"`
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	Pages     []int  `json:"pages"`
	Footnotes int    `json:"footnotes"`
}

// completedResult resolves the job named in the URL. It writes the error
// response itself and returns nil when the job is unknown or unfinished.
func (s *Server) completedResult(w http.ResponseWriter, r *http.Request) *pipeline.Result {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        "job has no result",
			"status":       snap.Status,
			"duplicate_of": snap.DuplicateOf,
		})
		return nil
	}
	return res
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	res := s.completedResult(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classification": res.Classification,
		"diagnostics":    res.Diagnostics,
		"record":         res.Record,
	})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	res := s.completedResult(w, r)
	if res == nil {
		return
	}
	chapters := make([]chapterSummary, 0, len(res.Book.Chapters))
	for _, ch := range res.Book.Chapters {
		chapters = append(chapters, chapterSummary{
			Order:     ch.Order,
			Title:     ch.Title,
			StartPage: ch.StartPage,
			Pages:     ch.PageNumbers(),
			Footnotes: len(ch.Footnotes),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

func (s *Server) handleListPassages(w http.ResponseWriter, r *http.Request) {
	res := s.completedResult(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"passages": res.Passages})
}

// handleDeleteBook forgets a job and its result.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.DeleteJob(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": jobID})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"jobs":        s.orchestrator.Stats(),
		"timings":     s.orchestrator.Timings(),
	})
}
