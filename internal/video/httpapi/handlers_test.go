package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlog/voxlog/internal/auth"
	"github.com/voxlog/voxlog/internal/storage/blob"
	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
	"github.com/voxlog/voxlog/internal/video/service"
)

type queueStub struct {
	events []models.DomainEvent
}

func (q *queueStub) Enqueue(_ context.Context, event models.DomainEvent) error {
	q.events = append(q.events, event)
	return nil
}

type testAPI struct {
	server *httptest.Server
	repo   *repository.MemoryRepository
	queue  *queueStub
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := blob.NewDiskStore(t.TempDir(), "http://localhost:8080", "test-secret")
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	queue := &queueStub{}
	svc := service.New(repo, store, queue, time.Hour, zerolog.Nop())
	authn := auth.New("hunter2", "test-secret")
	handler := New(svc, authn, store, zerolog.Nop())

	server := httptest.NewServer(NewRouter(handler, authn, zerolog.Nop()))
	t.Cleanup(server.Close)

	token, err := authn.Issue("hunter2")
	require.NoError(t, err)

	return &testAPI{server: server, repo: repo, queue: queue, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+a.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) upload(t *testing.T, filename, content string) VideoResponse {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := a.do(t, http.MethodPost, "/videos", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var v VideoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Post(api.server.URL+"/auth", "application/json", strings.NewReader(`{"password":"wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(api.server.URL+"/auth", "application/json", strings.NewReader(`{"password":"hunter2"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login := decodeJSON[LoginResponse](t, resp)
	assert.NotEmpty(t, login.Token)
}

func TestVideos_RequireAuth(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "/videos")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, api.server.URL+"/videos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadThenGet(t *testing.T) {
	api := newTestAPI(t)

	created := api.upload(t, "morning.mp4", "fake video bytes")
	assert.Equal(t, "morning.mp4", created.Filename)
	assert.Equal(t, string(models.PendingStatus), created.Status)
	assert.Empty(t, created.Title)
	assert.Empty(t, created.Tags)

	resp := api.do(t, http.MethodGet, "/videos/"+created.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeJSON[VideoResponse](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.NotEmpty(t, got.StorageURL, "playback link should be attached")
}

func TestUpload_MissingFileField(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	resp := api.do(t, http.MethodPost, "/videos", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_StatusFilter(t *testing.T) {
	api := newTestAPI(t)
	api.upload(t, "a.mp4", "a")
	api.upload(t, "b.mp4", "b")

	resp := api.do(t, http.MethodGet, "/videos?status=pending", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeJSON[VideoListResponse](t, resp)
	assert.Len(t, list.Videos, 2)

	resp = api.do(t, http.MethodGet, "/videos?status=ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decodeJSON[VideoListResponse](t, resp)
	assert.Empty(t, list.Videos)

	resp = api.do(t, http.MethodGet, "/videos?status=archived", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestProcessing(t *testing.T) {
	api := newTestAPI(t)
	created := api.upload(t, "a.mp4", "a")

	resp := api.do(t, http.MethodPost, "/videos/"+created.ID.String()+"/process", nil, "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	got := decodeJSON[VideoResponse](t, resp)
	assert.Equal(t, string(models.ProcessingStatus), got.Status)
	require.Len(t, api.queue.events, 1)
	assert.Equal(t, created.ID, api.queue.events[0].AggregateID())

	// A second trigger must not start a second run.
	resp = api.do(t, http.MethodPost, "/videos/"+created.ID.String()+"/process", nil, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, api.queue.events, 1)
}

func TestRequestProcessing_UnknownVideo(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/videos/6a6c1582-3187-46f1-a169-7a3b6f26e9f5/process", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteVideo(t *testing.T) {
	api := newTestAPI(t)
	created := api.upload(t, "a.mp4", "a")

	resp := api.do(t, http.MethodDelete, "/videos/"+created.ID.String(), nil, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/videos/"+created.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAllTags(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/videos/tags", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tags := decodeJSON[TagsResponse](t, resp)
	assert.Empty(t, tags.Tags)
}

func TestServeMedia_SignedURL(t *testing.T) {
	api := newTestAPI(t)
	created := api.upload(t, "a.mp4", "fake video bytes")

	resp := api.do(t, http.MethodGet, "/videos/"+created.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON[VideoResponse](t, resp)
	require.NotEmpty(t, got.StorageURL)

	// The signed link was built against the configured base URL; replay the
	// path and query against the test server without any bearer token.
	u, err := url.Parse(got.StorageURL)
	require.NoError(t, err)

	mediaResp, err := http.Get(api.server.URL + u.Path + "?" + u.RawQuery)
	require.NoError(t, err)
	defer mediaResp.Body.Close()
	require.Equal(t, http.StatusOK, mediaResp.StatusCode)

	body, err := io.ReadAll(mediaResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(body))

	// A tampered signature is refused.
	tampered, err := http.Get(api.server.URL + u.Path + "?exp=9999999999&sig=deadbeef")
	require.NoError(t, err)
	defer tampered.Body.Close()
	assert.Equal(t, http.StatusForbidden, tampered.StatusCode)
}
