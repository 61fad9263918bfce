package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"beatstore/logger"
	"beatstore/storage"

	"github.com/gorilla/mux"
)

// ServeAudioHandler streams a stored audio file to an authenticated user.
func (h *Handler) ServeAudioHandler(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		http.NotFound(w, r)
		return
	}

	object, err := h.intake.OpenAudio(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("Failed to open audio file", logger.String("filename", filename), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	var contentType string
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".mp3"):
		contentType = "audio/mpeg"
	case strings.HasSuffix(strings.ToLower(filename), ".wav"):
		contentType = "audio/wav"
	default:
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	// Both storage drivers hand back seekable objects, so players get
	// Range support for seeking. Fall back to a plain copy otherwise.
	if seeker, ok := object.(io.ReadSeeker); ok {
		http.ServeContent(w, r, filename, time.Time{}, seeker)
		return
	}
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error streaming audio file", logger.String("filename", filename), logger.ErrorField(err))
	}
}

// ServeCoverHandler serves a stored cover image. Covers are public; they are
// shown on catalog and detail views to anonymous visitors.
func (h *Handler) ServeCoverHandler(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		http.NotFound(w, r)
		return
	}

	object, err := h.intake.OpenCover(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("Failed to open cover image", logger.String("filename", filename), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	var contentType string
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".png"):
		contentType = "image/png"
	case strings.HasSuffix(strings.ToLower(filename), ".gif"):
		contentType = "image/gif"
	default:
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error serving cover image", logger.String("filename", filename), logger.ErrorField(err))
	}
}
