package ticket

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/brickyard/jobticket/internal/recognize"
	"github.com/brickyard/jobticket/internal/version"
)

// handleIndex renders the ticket listing
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Pick up receipts other tools dropped into storage before listing
	if s.service.Async() {
		if err := s.service.Rescan(false); err != nil {
			slog.Warn("Rescan failed", "error", err)
		}
	}

	listings, err := s.service.Listings()
	if err != nil {
		slog.Error("Error listing tickets", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	anyProcessing := false
	for _, l := range listings {
		if l.Processing() {
			anyProcessing = true
			break
		}
	}

	renderPage(w, "index.html", indexData{
		Listings:      listings,
		AnyProcessing: anyProcessing,
		Version:       version.String,
	})
}

// handleUpload accepts one or more receipt files from the upload form
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["receipt"] {
			if fh.Filename != "" {
				headers = append(headers, fh)
			}
		}
	}
	if len(headers) == 0 {
		http.Error(w, "No receipt file provided", http.StatusBadRequest)
		return
	}

	batch := s.service.NewBatch(len(headers))
	accepted := 0
	for i, fh := range headers {
		data, contentType, err := readUpload(fh)
		if err != nil {
			slog.Error("Error reading upload", "filename", fh.Filename, "error", err)
			continue
		}
		if _, err := s.service.Accept(fh.Filename, data, contentType, batch, i+1); err != nil {
			slog.Error("Error accepting upload", "filename", fh.Filename, "error", err)
			continue
		}
		accepted++
	}

	if accepted == 0 {
		http.Error(w, "Storing uploads failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readUpload pulls the bytes and content type out of one multipart file
func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}

	contentType := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = recognize.ContentTypeForFile(fh.Filename)
	}
	return data, contentType, nil
}

// handleClassifyForm shows the job assignment form for a ticket
func (s *Server) handleClassifyForm(w http.ResponseWriter, r *http.Request) {
	listing, err := s.service.Listing(r.PathValue("name"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	// No edits while the scan is still running
	if listing.Processing() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	renderPage(w, "classify.html", classifyData{
		Listing: listing,
		Version: version.String,
	})
}

// handleClassifySubmit records the submitted job details
func (s *Server) handleClassifySubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	if _, err := s.service.Classify(name, r.PostFormValue("job_name"), r.PostFormValue("total")); err != nil {
		slog.Warn("Failed to classify ticket", "name", name, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleFile serves the stored bytes for a ticket
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.FileData(r.PathValue("name"))
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.String,
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
