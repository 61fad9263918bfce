package server

import (
	"errors"
	"net/http"
	"strconv"

	"beatstore/core/upload"
	"beatstore/logger"
	"beatstore/model"
)

// UploadPageHandler renders the beat upload form.
func (h *Handler) UploadPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "upload.html", nil)
}

// UploadHandler handles beat upload submissions: metadata, a required audio
// file and an optional cover image. Nothing is written to the catalog unless
// the audio file is accepted.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if r.ContentLength > h.cfg.MaxUploadSize {
		logger.Warn("Upload rejected, request too large",
			logger.Int64("contentLength", r.ContentLength),
			logger.Int64("maxSize", h.cfg.MaxUploadSize))
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Warn("Failed to parse upload form", logger.ErrorField(err))
		h.flashAndRedirect(w, r, "Failed to process upload form", "/upload")
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	genre := r.FormValue("genre")

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price <= 0 {
		h.flashAndRedirect(w, r, "Price must be a positive number", "/upload")
		return
	}
	bpm, err := strconv.Atoi(r.FormValue("bpm"))
	if err != nil || bpm <= 0 {
		h.flashAndRedirect(w, r, "BPM must be a positive number", "/upload")
		return
	}
	if title == "" {
		h.flashAndRedirect(w, r, "Title is required", "/upload")
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio_file")
	if err != nil {
		h.flashAndRedirect(w, r, "No audio file selected", "/upload")
		return
	}
	defer audioFile.Close()

	audioName, err := h.intake.StoreAudio(r.Context(), audioHeader.Filename, audioFile, audioHeader.Size)
	if err != nil {
		if errors.Is(err, upload.ErrInvalidFormat) {
			h.flashAndRedirect(w, r, "Invalid audio file format", "/upload")
			return
		}
		logger.Error("Failed to store audio file",
			logger.String("filename", audioHeader.Filename),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Cover is optional; an invalid one silently yields no image.
	var coverName string
	if coverFile, coverHeader, err := r.FormFile("cover_image"); err == nil {
		coverName = h.intake.StoreCover(r.Context(), coverHeader.Filename, coverFile)
		coverFile.Close()
	}

	beat := &model.Beat{
		Title:       title,
		Description: description,
		Price:       price,
		BPM:         bpm,
		Genre:       genre,
		AudioFile:   audioName,
		CoverImage:  coverName,
		UserID:      user.ID,
	}

	if err := h.beatRepo.Create(r.Context(), beat); err != nil {
		logger.Error("Failed to create beat", logger.String("title", title), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("Beat uploaded",
		logger.Int64("beatId", beat.ID),
		logger.String("title", title),
		logger.Int64("userId", user.ID))
	h.flashAndRedirect(w, r, "Beat uploaded successfully!", "/profile")
}
