package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"niwaki/internal/imagegen"
	"niwaki/internal/storage"
)

func TestUpload_PersistsForSignedInUser(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	app := newTestApp(newStubSQL())
	app.Storage = store

	rr := httptest.NewRecorder()
	req := asUser(jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{"image": pngPayload}), "user_42")
	app.Upload(rr, req)

	expectStatus(t, rr, http.StatusOK)
	body := decodeBody(t, rr)
	imageID, _ := body["imageId"].(string)
	if imageID == "" || body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	data, err := store.Read(context.Background(), storage.UploadKey("user_42", imageID, "png"))
	if err != nil {
		t.Fatalf("upload not persisted: %v", err)
	}
	if string(data) != "fake-png" {
		t.Fatalf("persisted data = %q", data)
	}
}

func TestUpload_AnonymousIsNotPersisted(t *testing.T) {
	app := newTestApp(newStubSQL())
	app.Storage = failingStore{}

	rr := httptest.NewRecorder()
	app.Upload(rr, jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{"image": pngPayload}))
	expectStatus(t, rr, http.StatusOK)
}

func TestUpload_StorageFailureStillSucceeds(t *testing.T) {
	app := newTestApp(newStubSQL())
	app.Storage = failingStore{}

	rr := httptest.NewRecorder()
	app.Upload(rr, asUser(jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{"image": pngPayload}), "user_1"))
	expectStatus(t, rr, http.StatusOK)
}

func TestUpload_Validation(t *testing.T) {
	app := newTestApp(newStubSQL())

	rr := httptest.NewRecorder()
	app.Upload(rr, jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{}))
	expectStatus(t, rr, http.StatusBadRequest)

	rr = httptest.NewRecorder()
	app.Upload(rr, jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{"image": "data:text/plain;base64,aGk="}))
	expectStatus(t, rr, http.StatusBadRequest)

	app.Config.MaxUploadBytes = 16
	rr = httptest.NewRecorder()
	app.Upload(rr, jsonRequest(t, http.MethodPost, "/v1/upload", map[string]string{"image": strings.Repeat("A", 64)}))
	expectStatus(t, rr, http.StatusRequestEntityTooLarge)
}

type failingStore struct{}

func (failingStore) Write(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("disk full")
}

func (failingStore) Read(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

type fakeGenerator struct {
	got    imagegen.Request
	images []imagegen.Image
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	f.got = req
	return f.images, f.err
}

func TestGenerateImage(t *testing.T) {
	gen := &fakeGenerator{images: []imagegen.Image{{Data: []byte("out"), MIMEType: "image/png"}}}
	app := newTestApp(newStubSQL())
	app.Generator = gen

	rr := httptest.NewRecorder()
	app.GenerateImage(rr, jsonRequest(t, http.MethodPost, "/v1/generate-image", map[string]string{
		"prompt":   "cloud pruned holly",
		"image":    "aW1n",
		"mimeType": "image/webp",
	}))
	expectStatus(t, rr, http.StatusOK)
	images := decodeBody(t, rr)["images"].([]any)
	if len(images) != 1 || !strings.HasPrefix(images[0].(string), "data:image/png;base64,") {
		t.Fatalf("unexpected images: %v", images)
	}
	if gen.got.Source == nil || gen.got.Source.MIMEType != "image/webp" || string(gen.got.Source.Data) != "img" {
		t.Fatalf("source image not forwarded: %+v", gen.got.Source)
	}
}

func TestGenerateImage_Failures(t *testing.T) {
	app := newTestApp(newStubSQL())

	rr := httptest.NewRecorder()
	app.GenerateImage(rr, jsonRequest(t, http.MethodPost, "/v1/generate-image", map[string]string{"prompt": "x"}))
	expectStatus(t, rr, http.StatusServiceUnavailable)

	app.Generator = &fakeGenerator{}
	rr = httptest.NewRecorder()
	app.GenerateImage(rr, jsonRequest(t, http.MethodPost, "/v1/generate-image", map[string]string{"prompt": "  "}))
	expectStatus(t, rr, http.StatusBadRequest)

	app.Generator = &fakeGenerator{err: imagegen.ErrNoImage}
	rr = httptest.NewRecorder()
	app.GenerateImage(rr, jsonRequest(t, http.MethodPost, "/v1/generate-image", map[string]string{"prompt": "x"}))
	expectStatus(t, rr, http.StatusBadGateway)
	if body := decodeBody(t, rr); body["code"] != "no_image" {
		t.Fatalf("unexpected code: %v", body)
	}
}
