package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/mcqgest/internal/mcq"
	"github.com/dgallion1/mcqgest/internal/pipeline"
	"github.com/dgallion1/mcqgest/internal/source"
)

// maxTableBytes bounds an edited table sent with PUT.
const maxTableBytes = 5 << 20

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !source.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	maxLen := 0
	if v := r.FormValue("max_chunk_len"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max_chunk_len must be a positive integer", http.StatusBadRequest)
			return
		}
		maxLen = n
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, data, maxLen)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("job queued", "job_id", job.ID, "filename", filename, "bytes", len(data), "content_hash", job.ContentHash)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.job(w, r)
	if job == nil {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	job := s.job(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("job is still %s", snap.Status), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  snap.ID,
		"status":  snap.Status,
		"edited":  snap.Edited,
		"records": job.Table().Records(),
	})
}

// handlePutTable replaces the job's table with a client-edited copy. Numbers
// in the body are ignored; rows are renumbered in the order given.
func (s *Server) handlePutTable(w http.ResponseWriter, r *http.Request) {
	job := s.job(w, r)
	if job == nil {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTableBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	table, err := mcq.DecodeTable(data)
	if err != nil {
		jsonError(w, "invalid table: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := job.ReplaceTable(table); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	s.log.Info("table replaced", "job_id", job.ID, "records", table.Len())

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  job.ID,
		"records": table.Len(),
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
