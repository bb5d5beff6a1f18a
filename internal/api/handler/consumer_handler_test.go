package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/api/middleware"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

type stubConsumerService struct {
	setPhotoFn func(ctx context.Context, p domain.Principal, id int64, photoURL string) error
}

func (s *stubConsumerService) List(_ context.Context, _ domain.Principal) ([]*domain.Consumer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConsumerService) Get(_ context.Context, _ domain.Principal, _ int64) (*domain.Consumer, error) {
	return nil, domain.ErrConsumerNotFound
}

func (s *stubConsumerService) Create(_ context.Context, _ domain.Principal, _ ports.CreateConsumerInput) (*domain.Consumer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConsumerService) Update(_ context.Context, _ domain.Principal, _ int64, _ ports.UpdateConsumerInput) (*domain.Consumer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConsumerService) UpdateProfile(_ context.Context, _ domain.Principal, _ ports.UpdateProfileInput) (*domain.Consumer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubConsumerService) Delete(_ context.Context, _ domain.Principal, _ int64) error {
	return errors.New("not implemented")
}

func (s *stubConsumerService) SetPhoto(ctx context.Context, p domain.Principal, id int64, photoURL string) error {
	return s.setPhotoFn(ctx, p, id, photoURL)
}

func photoUploadContext(t *testing.T, e *echo.Echo, consumerID string, p domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="face.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("fake image payload")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/consumers/"+consumerID+"/photo", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(consumerID)
	c.Set(middleware.PrincipalKey, p)
	return c, rec
}

func TestConsumerHandler_UploadPhoto_Self(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	uploadDir := t.TempDir()

	var gotURL string
	svc := &stubConsumerService{
		setPhotoFn: func(_ context.Context, p domain.Principal, id int64, photoURL string) error {
			if p.ID != 5 || id != 5 {
				t.Fatalf("unexpected principal/id: %d/%d", p.ID, id)
			}
			gotURL = photoURL
			return nil
		},
	}
	h := NewConsumerHandler(svc, uploadDir, "http://localhost:8080")

	self := domain.Principal{ID: 5, Kind: domain.KindConsumer, Role: domain.RoleConsumer}
	c, rec := photoUploadContext(t, e, "5", self)

	if err := h.UploadPhoto(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotURL == "" {
		t.Fatalf("expected photo url to be stored")
	}

	files, err := os.ReadDir(filepath.Join(uploadDir, "consumers"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected 1 uploaded file, got %d (err %v)", len(files), err)
	}
}

func TestConsumerHandler_UploadPhoto_OtherConsumerLeavesNoFile(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	uploadDir := t.TempDir()

	svc := &stubConsumerService{
		setPhotoFn: func(_ context.Context, _ domain.Principal, _ int64, _ string) error {
			t.Fatalf("service must not be called")
			return nil
		},
	}
	h := NewConsumerHandler(svc, uploadDir, "http://localhost:8080")

	intruder := domain.Principal{ID: 5, Kind: domain.KindConsumer, Role: domain.RoleConsumer}
	c, _ := photoUploadContext(t, e, "6", intruder)

	if err := h.UploadPhoto(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Nothing may persist in the publicly served uploads dir on a denied
	// request.
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	for _, entry := range entries {
		sub, err := os.ReadDir(filepath.Join(uploadDir, entry.Name()))
		if err == nil && len(sub) > 0 {
			t.Fatalf("denied upload persisted on disk: %s/%s", entry.Name(), sub[0].Name())
		}
	}
}

func TestConsumerHandler_UploadPhoto_RejectsNonImage(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	uploadDir := t.TempDir()

	svc := &stubConsumerService{
		setPhotoFn: func(_ context.Context, _ domain.Principal, _ int64, _ string) error {
			t.Fatalf("service must not be called")
			return nil
		},
	}
	h := NewConsumerHandler(svc, uploadDir, "http://localhost:8080")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("not an image")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/consumers/5/photo", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set(middleware.PrincipalKey, domain.Principal{ID: 5, Kind: domain.KindConsumer, Role: domain.RoleConsumer})

	uploadErr := h.UploadPhoto(c)
	var httpErr *echo.HTTPError
	if !errors.As(uploadErr, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", uploadErr)
	}
}
