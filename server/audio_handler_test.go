package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"voxshare/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadAudio posts a multipart upload and returns the recorder.
func (env *testEnv) uploadAudio(t *testing.T, token, title, isPublic, mimeType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	require.NoError(t, w.WriteField("title", title))
	if isPublic != "" {
		require.NoError(t, w.WriteField("isPublic", isPublic))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audio/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) mustUpload(t *testing.T, token, title, isPublic string) *model.Audio {
	t.Helper()
	rec := env.uploadAudio(t, token, title, isPublic, "audio/webm", []byte("RIFFfakeaudio"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Audio *model.Audio `json:"audio"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Audio)
	return res.Audio
}

func TestUploadDefaults(t *testing.T) {
	env := newTestEnv(t)
	token, user := env.signup(t, "alice", "alice@example.com")

	audio := env.mustUpload(t, token, "Test", "")
	assert.Equal(t, user.ID, audio.UserID)
	assert.Equal(t, "Test", audio.Title)
	assert.True(t, audio.IsPublic)
	assert.Equal(t, int64(0), audio.Plays)
	assert.Equal(t, int64(len("RIFFfakeaudio")), audio.FileSize)
	assert.True(t, strings.HasPrefix(audio.AudioURL, "data:audio/webm;base64,"))
}

func TestUploadUntitledFallback(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	audio := env.mustUpload(t, token, "", "")
	assert.Equal(t, "Untitled Audio", audio.Title)
}

func TestUploadPrivateFlag(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	audio := env.mustUpload(t, token, "Secret", "false")
	assert.False(t, audio.IsPublic)
}

func TestUploadRejectsNonAudio(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	rec := env.uploadAudio(t, token, "nope", "", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was persisted.
	list, err := env.audioRepo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMyAudiosNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	env.mustUpload(t, token, "first", "")
	env.mustUpload(t, token, "second", "")

	rec := env.do(t, http.MethodGet, "/api/audio/my-audios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*model.Audio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
}

func TestPublicFeedExcludesPrivate(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	env.mustUpload(t, token, "visible", "")
	private := env.mustUpload(t, token, "hidden", "false")

	rec := env.do(t, http.MethodGet, "/api/audio/public", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feed []*model.PublicAudio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "visible", feed[0].Title)
	assert.Equal(t, "alice", feed[0].Username)

	// Private audio is still fetchable by direct id.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/audio/%d", private.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAudioNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/audio/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteOwnership(t *testing.T) {
	env := newTestEnv(t)
	tokenA, _ := env.signup(t, "alice", "alice@example.com")
	tokenB, _ := env.signup(t, "bob", "bob@example.com")

	audio := env.mustUpload(t, tokenA, "Test", "")

	// A non-owner gets 403 and the record survives.
	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/audio/%d", audio.ID), tokenB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/audio/public", "", nil)
	var feed []*model.PublicAudio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed, 1)

	// The owner deletes it for good.
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/audio/%d", audio.ID), tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/audio/%d", audio.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMissingAudio(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodDelete, "/api/audio/12345", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayCountIncrements(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")
	audio := env.mustUpload(t, token, "Test", "")

	var last *model.Audio
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/audio/%d/play", audio.ID), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		last = &model.Audio{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), last))
	}
	assert.Equal(t, int64(5), last.Plays)
}

func TestPlayMissingAudio(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/audio/999/play", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareLink(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "alice", "alice@example.com")
	audio := env.mustUpload(t, token, "Song", "")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/audio/%d/share", audio.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		WhatsappLink string `json:"whatsappLink"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.True(t, strings.HasPrefix(res.WhatsappLink, "https://wa.me/?text="))
	assert.Contains(t, res.WhatsappLink, "Check%20out%20this%20audio%3A%20Song")
	assert.Contains(t, res.WhatsappLink, fmt.Sprintf("%%2Faudio%%2F%d", audio.ID))

	// The link is persisted on the record.
	stored, err := env.audioRepo.GetByID(context.Background(), audio.ID)
	require.NoError(t, err)
	assert.Equal(t, res.WhatsappLink, stored.WhatsappLink)
}

func TestShareMissingAudio(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/audio/999/share", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
