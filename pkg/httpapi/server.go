// Package httpapi serves the session control API (spec §6 Control API)
// over gin, following the teacher pack's gin-gonic/gin routing style
// (iamprashant-voice-ai's router package: one group per resource, one
// method per route, validated request bodies).
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchloop-ai/session-orchestrator/pkg/blobstore"
	"github.com/pitchloop-ai/session-orchestrator/pkg/orchestrator"
	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
)

// Service is the subset of orchestrator.Service the control API drives.
type Service interface {
	Start(ctx context.Context, deckID, tenantID, ownerID, title string) (sessionID, attachToken string, err error)
	Stop(ctx context.Context, sessionID string) (endedAt time.Time, durationSeconds float64, err error)
	GetSession(ctx context.Context, sessionID string) (*store.Session, error)
	GetTranscript(ctx context.Context, sessionID string) ([]store.Transcript, error)
	MarkAnswered(ctx context.Context, sessionID, questionID string) error
	DeleteQuestion(ctx context.Context, sessionID, questionID string) error
}

// Server wires the control API routes onto a gin.Engine.
type Server struct {
	svc   Service
	blobs blobstore.Store
	docs  store.SupportingDocuments
	rooms store.DataRoomDocuments
}

func New(svc Service, blobs blobstore.Store, docs store.SupportingDocuments, rooms store.DataRoomDocuments) *Server {
	return &Server{svc: svc, blobs: blobs, docs: docs, rooms: rooms}
}

// Register mounts every control-API route under engine.
func (s *Server) Register(engine *gin.Engine) {
	v1 := engine.Group("/v1/sessions")
	{
		v1.POST("", s.start)
		v1.POST("/:sessionId/stop", s.stop)
		v1.GET("/:sessionId", s.getSession)
		v1.GET("/:sessionId/transcript", s.getTranscript)
		v1.POST("/:sessionId/questions/:questionId/answer", s.markAnswered)
		v1.DELETE("/:sessionId/questions/:questionId", s.deleteQuestion)
	}
	engine.GET("/v1/decks/:deckId/supporting-documents/:docId/url", s.supportingDocumentURL)
	engine.GET("/v1/decks/:deckId/data-room-documents/:docId/url", s.dataRoomDocumentURL)
}

type startRequest struct {
	DeckID   string `json:"deckId" binding:"required"`
	TenantID string `json:"tenantId" binding:"required"`
	OwnerID  string `json:"ownerId" binding:"required"`
	Title    string `json:"title"`
}

type startResponse struct {
	SessionID   string `json:"sessionId"`
	AttachToken string `json:"attachToken"`
}

func (s *Server) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID, token, err := s.svc.Start(c.Request.Context(), req.DeckID, req.TenantID, req.OwnerID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, startResponse{SessionID: sessionID, AttachToken: token})
}

type stopResponse struct {
	EndedAt         time.Time `json:"endedAt"`
	DurationSeconds float64   `json:"durationSeconds"`
	SummaryPending  bool      `json:"summaryPending"`
}

func (s *Server) stop(c *gin.Context) {
	endedAt, duration, err := s.svc.Stop(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stopResponse{EndedAt: endedAt, DurationSeconds: duration, SummaryPending: true})
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.svc.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) getTranscript(c *gin.Context) {
	entries, err := s.svc.GetTranscript(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) markAnswered(c *gin.Context) {
	if err := s.svc.MarkAnswered(c.Request.Context(), c.Param("sessionId"), c.Param("questionId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteQuestion(c *gin.Context) {
	if err := s.svc.DeleteQuestion(c.Request.Context(), c.Param("sessionId"), c.Param("questionId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// supportingDocumentURL and dataRoomDocumentURL hand back a time-limited
// signed URL for a deck asset's underlying blob, rather than proxying the
// file bytes through this service.
func (s *Server) supportingDocumentURL(c *gin.Context) {
	docs, err := s.docs.ListByDeck(c.Request.Context(), c.Param("deckId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, d := range docs {
		if d.ID == c.Param("docId") {
			s.signedURL(c, d.BlobKey)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
}

func (s *Server) dataRoomDocumentURL(c *gin.Context) {
	docs, err := s.rooms.ListByDeck(c.Request.Context(), c.Param("deckId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, d := range docs {
		if d.ID == c.Param("docId") {
			s.signedURL(c, d.BlobKey)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
}

func (s *Server) signedURL(c *gin.Context, blobKey string) {
	if blobKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "document has no uploaded file"})
		return
	}
	url, err := s.blobs.SignedReadURL(c.Request.Context(), blobKey, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrSessionInactive), errors.Is(err, orchestrator.ErrInvalidSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
