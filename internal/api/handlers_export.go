package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mcqgest/internal/export"
	"github.com/dgallion1/mcqgest/internal/publish"
)

// exportOptions reads numbering and PDF styling from the query string.
func exportOptions(q url.Values) (export.Options, error) {
	opts := export.DefaultOptions()
	if v := q.Get("numbered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("numbered must be true or false")
		}
		opts.Numbered = b
	}

	pdf := &opts.PDF
	for key, dst := range map[string]*string{
		"orientation": &pdf.Orientation,
		"title":       &pdf.Title,
		"title_align": &pdf.TitleAlign,
		"header_bg":   &pdf.HeaderBG,
		"header_text": &pdf.HeaderText,
		"alt_row":     &pdf.AltRow,
	} {
		if v := q.Get(key); v != "" {
			*dst = v
		}
	}
	if v := q.Get("title_size"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 || size > 72 {
			return opts, fmt.Errorf("title_size must be a number between 0 and 72")
		}
		pdf.TitleSize = size
	}
	return opts, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	job := s.job(w, r)
	if job == nil {
		return
	}
	if snap := job.Snapshot(); !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("job is still %s", snap.Status), http.StatusConflict)
		return
	}

	opts, err := exportOptions(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	exp, err := export.ForFormat(chi.URLParam(r, "format"), opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	data, err := exp.Export(job.Table())
	if err != nil {
		s.log.Error("export failed", "job_id", job.ID, "format", exp.Format(), "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	base := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_mcqs%s"`, base, exp.Extension()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	job := s.job(w, r)
	if job == nil {
		return
	}
	if snap := job.Snapshot(); !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("job is still %s", snap.Status), http.StatusConflict)
		return
	}
	table := job.Table()
	if table.Empty() {
		jsonError(w, "no MCQs to publish", http.StatusConflict)
		return
	}

	res, err := s.publisher.Publish(r.Context(), table)
	if errors.Is(err, publish.ErrNotConfigured) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.log.Error("publish failed", "job_id", job.ID, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":     job.ID,
		"published":  res.Questions,
		"request_id": res.RequestID,
	})
}
