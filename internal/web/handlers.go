package web

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Extra-Chill/astra-web/internal/files"
	"github.com/Extra-Chill/astra-web/internal/metrics"
	"github.com/Extra-Chill/astra-web/internal/page"
	"github.com/Extra-Chill/astra-web/internal/settings"
)

// Page names used in logs and metrics.
const (
	pageFiles    = "files"
	pageUpload   = "upload"
	pageNotFound = "not_found"
)

// maxFormBytes bounds a configuration form submission.
const maxFormBytes = 16 << 10

// LayoutProvider returns the layout to render the current request with.
type LayoutProvider interface {
	Layout() *page.Layout
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	layouts  LayoutProvider
	filesDir string
	settings *settings.Store
	recorder metrics.Recorder
}

// NewHandlers creates a new Handlers instance. A nil recorder disables metrics.
func NewHandlers(layouts LayoutProvider, filesDir string, store *settings.Store, recorder metrics.Recorder) *Handlers {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Handlers{
		layouts:  layouts,
		filesDir: filesDir,
		settings: store,
		recorder: recorder,
	}
}

// FilesHandler handles GET /: the data file listing.
func (h *Handlers) FilesHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := files.List(h.filesDir)
	if err != nil {
		log.Printf("Failed to list %s: %v", h.filesDir, err)
		h.render(w, pageFiles, http.StatusServiceUnavailable,
			"<h2>Files</h2><p class='rcorners_m'>Storage unavailable.</p>")
		return
	}

	h.render(w, pageFiles, http.StatusOK, files.Summary(entries), files.Table(entries))
}

// UploadFormHandler handles GET /upload: the configuration form.
func (h *Handlers) UploadFormHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, pageUpload, http.StatusOK, settings.Form(h.settings.Get(), settings.Notice{}))
}

// UploadSubmitHandler handles POST /upload: saves submitted settings.
func (h *Handlers) UploadSubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	current := h.settings.Get()
	next, err := settings.FromForm(r.PostForm, current)
	if err != nil {
		h.render(w, pageUpload, http.StatusBadRequest,
			settings.Form(current, settings.Notice{Text: err.Error(), Error: true}))
		return
	}

	if err := h.settings.Update(next); err != nil {
		log.Printf("Failed to save settings: %v", err)
		h.render(w, pageUpload, http.StatusInternalServerError,
			settings.Form(current, settings.Notice{Text: "Settings could not be saved.", Error: true}))
		return
	}

	log.Printf("Settings updated: device=%q interval=%ds depth=%gm", next.DeviceName, next.SampleInterval, next.TargetDepth)
	h.render(w, pageUpload, http.StatusOK, settings.Form(next, settings.Notice{Text: "Settings saved."}))
}

// NotFoundHandler renders unknown paths inside the shared layout.
func (h *Handlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, pageNotFound, http.StatusNotFound,
		"<h2>Not found</h2><p>"+page.Escape(r.URL.Path)+" does not exist.</p>")
}

// render assembles one document for this request and writes it only once it
// is complete; a failed assembly yields a minimal error response instead.
func (h *Handlers) render(w http.ResponseWriter, name string, status int, body ...string) {
	start := time.Now()

	doc := h.layouts.Layout().Begin()
	out, err := assemble(doc, body)
	if err != nil {
		reason := "assembly"
		if errors.Is(err, page.ErrTooLarge) {
			reason = "too_large"
		}
		log.Printf("Failed to render %s page: %v", name, err)
		h.recorder.PageFailed(name, reason)
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(status)
	if _, err := io.WriteString(w, out); err != nil {
		log.Printf("Failed to write %s page: %v", name, err)
		return
	}
	h.recorder.PageRendered(name, len(out), time.Since(start))
}

func assemble(doc *page.Document, body []string) (string, error) {
	if err := doc.Append(body...); err != nil {
		return "", err
	}
	return doc.End()
}
