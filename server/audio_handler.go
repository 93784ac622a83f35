package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"voxshare/cache"
	"voxshare/logger"
	"voxshare/model"
	"voxshare/repository"
	"voxshare/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const defaultAudioTitle = "Untitled Audio"

// UploadAudioHandler handles audio uploads.
// Expected multipart form fields:
// - audio: the audio file (any audio/* MIME type)
// - title: clip title (optional, defaults to "Untitled Audio")
// - description: clip description (optional)
// - isPublic: visibility flag, public unless exactly "false"
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer audioFile.Close()

	mimeType := audioHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "audio/") {
		writeError(w, http.StatusBadRequest, "File must be audio")
		return
	}
	if audioHeader.Size > h.cfg.MaxUploadBytes {
		writeError(w, http.StatusBadRequest, "Audio file exceeds the maximum allowed size")
		return
	}

	fileBytes, err := io.ReadAll(audioFile)
	if err != nil {
		logger.Error("[Upload] failed to read audio file", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to read audio file")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = defaultAudioTitle
	}

	audioURL, err := h.storePayload(r, fileBytes, mimeType, audioHeader.Filename)
	if err != nil {
		logger.Error("[Upload] failed to store audio payload", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to store audio file")
		return
	}

	audio := &model.Audio{
		UserID:      userID,
		Title:       title,
		Description: r.FormValue("description"),
		AudioURL:    audioURL,
		FileSize:    int64(len(fileBytes)),
		IsPublic:    r.FormValue("isPublic") != "false",
	}

	if err := h.audioRepo.Create(r.Context(), audio); err != nil {
		logger.Error("[Upload] failed to create audio record", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	if err := cache.InvalidatePublicFeed(r.Context()); err != nil {
		logger.Warn("[Upload] failed to invalidate feed cache", logger.ErrorField(err))
	}

	logger.Info("[Upload] audio uploaded",
		logger.Int64("audioId", audio.ID),
		logger.Int64("userId", userID),
		logger.Int64("size", audio.FileSize))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Audio uploaded successfully",
		"audio":   audio,
	})
}

// storePayload puts the audio bytes into object storage when configured and
// falls back to embedding them as a data URI.
func (h *APIHandler) storePayload(r *http.Request, fileBytes []byte, mimeType, filename string) (string, error) {
	if !storage.Enabled() {
		return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(fileBytes)), nil
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".dat" // Fallback extension
	}
	objectName := "audio/" + uuid.NewString() + ext
	if err := storage.PutAudioObject(r.Context(), objectName, bytes.NewReader(fileBytes), int64(len(fileBytes)), mimeType); err != nil {
		return "", err
	}
	return "/media/" + objectName, nil
}

// MyAudiosHandler returns the caller's own audios, newest first.
func (h *APIHandler) MyAudiosHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	audios, err := h.audioRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("[MyAudios] failed to list audios", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, audios)
}

// PublicAudiosHandler returns the public feed, newest first. Served from the
// Redis cache when warm.
func (h *APIHandler) PublicAudiosHandler(w http.ResponseWriter, r *http.Request) {
	if feed, err := cache.GetPublicFeed(r.Context()); err == nil && feed != nil {
		writeJSON(w, http.StatusOK, feed)
		return
	} else if err != nil {
		logger.Warn("[Public] feed cache read failed", logger.ErrorField(err))
	}

	feed, err := h.audioRepo.ListPublic(r.Context())
	if err != nil {
		logger.Error("[Public] failed to list public audios", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := cache.SetPublicFeed(r.Context(), feed); err != nil {
		logger.Warn("[Public] feed cache write failed", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, feed)
}

// GetAudioHandler returns a single audio joined with its owner's public
// fields. Visibility is intentionally not checked at this level.
func (h *APIHandler) GetAudioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := audioIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Audio not found")
		return
	}

	audio, err := h.audioRepo.GetWithOwner(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAudioNotFound) {
			writeError(w, http.StatusNotFound, "Audio not found")
			return
		}
		logger.Error("[GetAudio] failed to get audio", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, audio)
}

// DeleteAudioHandler removes an audio after an ownership check.
func (h *APIHandler) DeleteAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := audioIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Audio not found")
		return
	}

	audio, err := h.audioRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAudioNotFound) {
			writeError(w, http.StatusNotFound, "Audio not found")
			return
		}
		logger.Error("[Delete] failed to get audio", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if audio.UserID != userID {
		logger.Warn("[Delete] ownership mismatch",
			logger.Int64("audioId", id),
			logger.Int64("ownerId", audio.UserID),
			logger.Int64("requesterId", userID))
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if err := h.audioRepo.Delete(r.Context(), id); err != nil {
		logger.Error("[Delete] failed to delete audio", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// Best-effort cleanup of an externally stored payload.
	if storage.Enabled() && strings.HasPrefix(audio.AudioURL, "/media/") {
		objectName := strings.TrimPrefix(audio.AudioURL, "/media/")
		if err := storage.RemoveObject(r.Context(), objectName); err != nil {
			logger.Warn("[Delete] failed to remove stored object",
				logger.String("object", objectName), logger.ErrorField(err))
		}
	}

	if err := cache.InvalidatePublicFeed(r.Context()); err != nil {
		logger.Warn("[Delete] failed to invalidate feed cache", logger.ErrorField(err))
	}

	logger.Info("[Delete] audio deleted", logger.Int64("audioId", id), logger.Int64("userId", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Audio deleted successfully"})
}

// ShareAudioHandler builds a WhatsApp deep link for the audio's public page,
// persists it on the record and returns it.
func (h *APIHandler) ShareAudioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := audioIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Audio not found")
		return
	}

	audio, err := h.audioRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAudioNotFound) {
			writeError(w, http.StatusNotFound, "Audio not found")
			return
		}
		logger.Error("[Share] failed to get audio", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	whatsappLink := buildWhatsappLink(h.cfg.FrontendURL, id, audio.Title)
	if err := h.audioRepo.SetWhatsappLink(r.Context(), id, whatsappLink); err != nil {
		logger.Error("[Share] failed to persist share link", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"whatsappLink": whatsappLink})
}

// PlayAudioHandler atomically increments the play counter and returns the
// updated record. Unauthenticated and never deduplicated.
func (h *APIHandler) PlayAudioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := audioIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Audio not found")
		return
	}

	audio, err := h.audioRepo.IncrementPlays(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAudioNotFound) {
			writeError(w, http.StatusNotFound, "Audio not found")
			return
		}
		logger.Error("[Play] failed to increment plays", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, audio)
}

func audioIDFromRequest(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	return strconv.ParseInt(idStr, 10, 64)
}

// buildWhatsappLink embeds a pre-formatted message plus the clip's public
// page URL into a wa.me deep link, escaped the way encodeURIComponent does
// (%20 for spaces rather than +).
func buildWhatsappLink(frontendURL string, id int64, title string) string {
	shareURL := fmt.Sprintf("%s/audio/%d", strings.TrimRight(frontendURL, "/"), id)
	message := fmt.Sprintf("Check out this audio: %s %s", title, shareURL)
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/?text=" + encoded
}
