package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchloop-ai/session-orchestrator/pkg/blobstore"
	"github.com/pitchloop-ai/session-orchestrator/pkg/orchestrator"
	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
)

// fakeService is a hand-rolled Service double, in the style of the
// orchestrator package's fakeSocket/fakeSTTProvider test doubles: record
// inputs, return canned outputs, no mocking library.
type fakeService struct {
	startSessionID, startToken string
	startErr                   error

	stoppedSessionID string
	stopEndedAt      time.Time
	stopDuration     float64
	stopErr          error

	session    *store.Session
	sessionErr error

	transcript    []store.Transcript
	transcriptErr error

	markAnsweredErr error
	deleteErr       error
}

func (f *fakeService) Start(ctx context.Context, deckID, tenantID, ownerID, title string) (string, string, error) {
	return f.startSessionID, f.startToken, f.startErr
}

func (f *fakeService) Stop(ctx context.Context, sessionID string) (time.Time, float64, error) {
	f.stoppedSessionID = sessionID
	return f.stopEndedAt, f.stopDuration, f.stopErr
}

func (f *fakeService) GetSession(ctx context.Context, sessionID string) (*store.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeService) GetTranscript(ctx context.Context, sessionID string) ([]store.Transcript, error) {
	return f.transcript, f.transcriptErr
}

func (f *fakeService) MarkAnswered(ctx context.Context, sessionID, questionID string) error {
	return f.markAnsweredErr
}

func (f *fakeService) DeleteQuestion(ctx context.Context, sessionID, questionID string) error {
	return f.deleteErr
}

func newTestEngine(svc Service, blobs blobstore.Store, docs store.SupportingDocuments, rooms store.DataRoomDocuments) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(svc, blobs, docs, rooms).Register(engine)
	return engine
}

func TestStartReturns201WithAttachToken(t *testing.T) {
	svc := &fakeService{startSessionID: "sess-1", startToken: "tok-1"}
	engine := newTestEngine(svc, blobstore.NewMemory(), nil, nil)

	body := strings.NewReader(`{"deckId":"deck-1","tenantId":"tenant-1","ownerId":"owner-1","title":"Acme"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp startResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-1" || resp.AttachToken != "tok-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestStartMissingFieldReturns400(t *testing.T) {
	svc := &fakeService{}
	engine := newTestEngine(svc, blobstore.NewMemory(), nil, nil)

	body := strings.NewReader(`{"deckId":"deck-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStopNotFoundReturns404(t *testing.T) {
	svc := &fakeService{stopErr: orchestrator.ErrSessionNotFound}
	engine := newTestEngine(svc, blobstore.NewMemory(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/does-not-exist/stop", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.stoppedSessionID != "does-not-exist" {
		t.Errorf("expected Stop to be called with the path param, got %q", svc.stoppedSessionID)
	}
}

func TestGetSessionReturnsSnapshot(t *testing.T) {
	svc := &fakeService{session: &store.Session{ID: "sess-1", Status: store.SessionActive}}
	engine := newTestEngine(svc, blobstore.NewMemory(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess store.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sess.ID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", sess.ID)
	}
}

func TestMarkAnsweredReturns204(t *testing.T) {
	svc := &fakeService{}
	engine := newTestEngine(svc, blobstore.NewMemory(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/questions/q-1/answer", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

type fakeDocs struct {
	docs []store.SupportingDocument
}

func (f *fakeDocs) ListByDeck(ctx context.Context, deckID string) ([]store.SupportingDocument, error) {
	return f.docs, nil
}

func TestSupportingDocumentURLSigns(t *testing.T) {
	blobs := blobstore.NewMemory()
	if err := blobs.Put(context.Background(), "blob-1", []byte("pdf bytes")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	docs := &fakeDocs{docs: []store.SupportingDocument{{ID: "doc-1", DeckID: "deck-1", BlobKey: "blob-1"}}}
	engine := newTestEngine(&fakeService{}, blobs, docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/decks/deck-1/supporting-documents/doc-1/url", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["url"] == "" {
		t.Error("expected a non-empty signed url")
	}
}

func TestSupportingDocumentURLMissingBlobKeyReturns404(t *testing.T) {
	docs := &fakeDocs{docs: []store.SupportingDocument{{ID: "doc-1", DeckID: "deck-1"}}}
	engine := newTestEngine(&fakeService{}, blobstore.NewMemory(), docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/decks/deck-1/supporting-documents/doc-1/url", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a document with no uploaded file, got %d: %s", rec.Code, rec.Body.String())
	}
}
