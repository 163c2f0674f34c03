// Package web serves the browser front end: an upload form, per-session
// results and downloads.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
	"github.com/kpauljoseph/listingpacket/pkg/version"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type Server struct {
	exporter  workflow.Exporter
	caps      capability.Set
	sessions  *sessionStore
	maxUpload int64
	logger    *logger.Logger
}

func NewServer(exporter workflow.Exporter, caps capability.Set, maxUploadMB int64, log *logger.Logger) *Server {
	return &Server{
		exporter:  exporter,
		caps:      caps,
		sessions:  newSessionStore(),
		maxUpload: maxUploadMB << 20,
		logger:    log,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/packet", s.handlePacket)
	r.Post("/social", s.handleSocial)
	r.Get("/download/{id}", s.handleDownload)
	r.Post("/reset", s.handleReset)
	return r
}

type pageData struct {
	AppName         string
	Version         string
	CoverAvailable  bool
	SocialAvailable bool
	Error           string
	Ready           bool
	Summary         string
	Downloads       []download
	Report          []models.IntakeEntry
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.mu.Lock()
	data := pageData{
		AppName:         version.AppName,
		Version:         version.GetVersionInfo(),
		CoverAvailable:  s.caps.Cover(),
		SocialAvailable: s.caps.Social(),
		Error:           sess.errMsg,
		Ready:           sess.result != nil,
		Downloads:       sess.downloads,
	}
	if sess.result != nil {
		data.Summary = sess.result.Summary
		data.Report = sess.result.Intake
	}
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Warn("Failed to render index: %v", err)
	}
}

func (s *Server) handlePacket(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, r, sess, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	files, err := readUploads(r.MultipartForm.File["files"])
	if err != nil {
		s.fail(w, r, sess, http.StatusBadRequest, err)
		return
	}
	photo, err := readOptionalUpload(r, "photo")
	if err != nil {
		s.fail(w, r, sess, http.StatusBadRequest, err)
		return
	}

	req := workflow.Request{
		Files:        files,
		Photo:        photo,
		Street:       r.FormValue("street"),
		CityState:    r.FormValue("city_state"),
		IncludeCover: checked(r, "include_cover"),
		CreatePosts:  checked(r, "create_posts"),
		Compress:     checked(r, "compress"),
	}
	s.logger.Debug("Packet request: %d files, photo=%t, cover=%t, posts=%t", len(files), len(photo) > 0, req.IncludeCover, req.CreatePosts)

	res, err := s.exporter.Export(r.Context(), req)
	if err != nil {
		s.fail(w, r, sess, statusFor(err), err)
		return
	}
	s.store(sess, res)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, r, sess, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	photo, err := readOptionalUpload(r, "photo")
	if err != nil {
		s.fail(w, r, sess, http.StatusBadRequest, err)
		return
	}

	res, err := s.exporter.SocialOnly(r.Context(), workflow.SocialRequest{
		Photo:     photo,
		Street:    r.FormValue("street"),
		CityState: r.FormValue("city_state"),
	})
	if err != nil {
		s.fail(w, r, sess, statusFor(err), err)
		return
	}
	s.store(sess, res)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.mu.Lock()
	d, ok := sess.find(chi.URLParam(r, "id"))
	sess.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", d.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	w.Write(d.Data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	sess.mu.Lock()
	sess.reset()
	sess.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) store(sess *session, res *workflow.Result) {
	sess.reset()
	sess.result = res
	if res.Packet != nil {
		sess.downloads = append(sess.downloads, download{
			ID:       "packet",
			Label:    "Listing Packet",
			Filename: res.PacketName,
			MIME:     "application/pdf",
			Data:     res.Packet.PDF,
		})
	}
	for _, p := range res.Posts {
		sess.downloads = append(sess.downloads, download{
			ID:       p.Type.Slug(),
			Label:    p.Type.Label() + " Post",
			Filename: p.Filename,
			MIME:     "image/png",
			Data:     p.PNG,
		})
	}
}

// fail records the error for the next page view. Browsers are redirected
// back to the form; other clients get the status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, sess *session, status int, err error) {
	s.logger.Warn("Request %s failed: %v", middleware.GetReqID(r.Context()), err)
	sess.reset()
	sess.errMsg = err.Error()
	if accept := r.Header.Get("Accept"); accept == "" || strings.Contains(accept, "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrAddressRequired), errors.Is(err, workflow.ErrPhotoRequired):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func readUploads(headers []*multipart.FileHeader) ([]models.SourceFile, error) {
	files := make([]models.SourceFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readHeader(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, models.SourceFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readOptionalUpload(r *http.Request, field string) ([]byte, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	return readHeader(headers[0])
}

func readHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func checked(r *http.Request, field string) bool {
	switch r.FormValue(field) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
