// Package orchestrator implements the per-session state machine (spec §4.7):
// attach/detach, audio intake, the rolling suggestion gate, the inactivity
// watchdog, and end-of-session finalization. It generalizes the teacher's
// Orchestrator/ManagedStream pair — a provider-facing struct plus a
// per-connection stateful stream — into one Service keyed by session id
// through a Registry, with the same "read under lock, drop lock, do I/O,
// reacquire, commit" discipline the teacher's managed_stream.go documents.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pitchloop-ai/session-orchestrator/internal/metrics"
	"github.com/pitchloop-ai/session-orchestrator/pkg/authtoken"
	"github.com/pitchloop-ai/session-orchestrator/pkg/audio"
	"github.com/pitchloop-ai/session-orchestrator/pkg/contextassembler"
	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
	"github.com/pitchloop-ai/session-orchestrator/pkg/suggestion"
	"github.com/pitchloop-ai/session-orchestrator/pkg/summarizer"
	"github.com/pitchloop-ai/session-orchestrator/pkg/tenantkey"
	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
)

// STTFactory constructs a transcription provider client from a plaintext
// API key.
type STTFactory func(apiKey string) transcript.Provider

// LLMFactory constructs a generator client from a plaintext API key.
type LLMFactory func(apiKey string) llm.Generator

// tenantProviderKeys is the JSON shape decrypted from
// Organization.EncryptedAPIKeys.
type tenantProviderKeys struct {
	STTKey string `json:"sttKey"`
	LLMKey string `json:"llmKey"`
}

// Service is the Session Orchestrator: it owns the Registry and drives every
// state transition in spec §4.7 on top of the store and provider
// collaborators.
type Service struct {
	cfg    Config
	logger Logger

	store    *store.Store
	registry *Registry

	sttFactory STTFactory
	llmFactory LLMFactory
	defaultSTTKey string
	defaultLLMKey string

	cipher      *tenantkey.Cipher
	clientCache *tenantkey.ClientCache

	issuer *authtoken.Issuer

	metrics *metrics.Metrics
}

// SetMetrics attaches the OpenTelemetry instruments the Service records
// against; nil is valid and leaves recording a no-op, so tests and callers
// that don't care about metrics never need to construct one.
func (svc *Service) SetMetrics(m *metrics.Metrics) {
	svc.metrics = m
}

func NewService(
	cfg Config,
	logger Logger,
	st *store.Store,
	sttFactory STTFactory,
	llmFactory LLMFactory,
	defaultSTTKey, defaultLLMKey string,
	cipher *tenantkey.Cipher,
	clientCache *tenantkey.ClientCache,
	issuer *authtoken.Issuer,
) *Service {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &Service{
		cfg:           cfg,
		logger:        logger,
		store:         st,
		registry:      NewRegistry(),
		sttFactory:    sttFactory,
		llmFactory:    llmFactory,
		defaultSTTKey: defaultSTTKey,
		defaultLLMKey: defaultLLMKey,
		cipher:        cipher,
		clientCache:   clientCache,
		issuer:        issuer,
	}
}

// Start creates a new Active session and issues its attach token (Control
// API "Start", spec §6).
func (svc *Service) Start(ctx context.Context, deckID, tenantID, ownerID, title string) (sessionID, attachToken string, err error) {
	id := uuid.NewString()
	now := time.Now()
	sess := &store.Session{
		ID:           id,
		DeckID:       deckID,
		TenantID:     tenantID,
		OwnerID:      ownerID,
		Title:        title,
		Status:       store.SessionActive,
		StartedAt:    now,
		SummaryState: store.SummaryPending,
	}
	if err := svc.store.Sessions.Create(ctx, sess); err != nil {
		return "", "", fmt.Errorf("orchestrator: create session: %w", err)
	}
	token, err := svc.issuer.Issue(id, tenantID)
	if err != nil {
		return "", "", fmt.Errorf("orchestrator: issue attach token: %w", err)
	}
	if svc.metrics != nil {
		svc.metrics.SessionsStarted.Add(ctx, 1)
	}
	return id, token, nil
}

// Attach implements Init→Attached (spec §4.7). Reattaching to a session
// that is already registered (Attached/Recording) just swaps the socket and
// preserves pcmRing/sub-tasks, satisfying idempotent attach (invariant 2).
func (svc *Service) Attach(ctx context.Context, sessionID string, socket Socket) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	if st, ok := svc.registry.get(sessionID); ok {
		st.mu.Lock()
		st.socket = socket
		st.mu.Unlock()
		svc.sendSessionStatus(st, "attached", "reattached to session")
		svc.replayVisibleQuestions(st)
		return nil
	}

	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrSessionNotFound
		}
		return fmt.Errorf("orchestrator: get session: %w", err)
	}
	if sess.Status != store.SessionActive {
		return ErrSessionInactive
	}

	st, created := svc.registry.getOrCreate(sessionID, sess.TenantID, sess.DeckID)
	st.mu.Lock()
	if created {
		st.session = sess
		st.lastAudioAt = time.Now()
	}
	st.socket = socket
	st.mu.Unlock()

	if created {
		svc.startWatchdog(sessionID)
		go svc.runInitialSuggestions(sessionID)
		if svc.metrics != nil {
			svc.metrics.ActiveSessions.Add(ctx, 1)
		}
	}

	svc.sendSessionStatus(st, "attached", "joined session")
	svc.replayVisibleQuestions(st)
	return nil
}

func (svc *Service) sendSessionStatus(st *sessionState, status, message string) {
	st.mu.Lock()
	socket := st.socket
	st.mu.Unlock()
	if socket == nil {
		return
	}
	if err := socket.Send("session-status", SessionStatusPayload{Status: status, Message: message}); err != nil {
		svc.logger.Warn("send session-status failed", "sessionId", st.id, "error", err)
	}
}

func (svc *Service) replayVisibleQuestions(st *sessionState) {
	st.mu.Lock()
	socket := st.socket
	sess := st.session
	st.mu.Unlock()
	if socket == nil || sess == nil {
		return
	}
	views := questionViews(sess.VisibleQuestions())
	if err := socket.Send("suggested-questions-updated", SuggestedQuestionsUpdatedPayload{Questions: views}); err != nil {
		svc.logger.Warn("replay questions failed", "sessionId", st.id, "error", err)
	}
}

// HandleAudioFrame implements Attached→Recording and Recording→Recording
// (spec §4.7). Frames are normalized by the Audio Framer, then appended
// under the session lock; the (possibly slow) streaming-transcriber
// construction and provider submission happen outside the lock.
func (svc *Service) HandleAudioFrame(ctx context.Context, sessionID string, frame any) error {
	pcm, ok := audio.Normalize(frame)
	if !ok {
		return nil // oversize/empty: dropped silently per §4.1
	}

	st, ok := svc.registry.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	st.mu.Lock()
	if st.stopped {
		st.mu.Unlock()
		return nil // audio after stop is dropped, per spec §9 Open Question
	}
	needsStreaming := st.streaming == nil
	tenantID := st.tenantID
	st.mu.Unlock()

	if needsStreaming {
		provider, err := svc.resolveSTT(ctx, tenantID)
		if err != nil {
			svc.emitError(st, CodeProviderKeyMissing, err.Error())
			return err
		}
		streaming := transcript.NewStreaming(
			provider,
			transcript.Options{SampleRate: svc.cfg.SampleRate},
			func(text string, isFinal bool) { svc.onStreamingPartial(sessionID, text, isFinal) },
			func(err error) { svc.onStreamingError(sessionID, err) },
		)
		st.mu.Lock()
		if st.streaming == nil {
			st.streaming = streaming
		} else {
			streaming.Close(ctx)
		}
		st.mu.Unlock()
	}

	st.mu.Lock()
	st.pcm.Write(pcm)
	st.framesReceived++
	st.lastAudioAt = time.Now()
	streaming := st.streaming
	pcmLen := st.pcm.Len()
	frames := st.framesReceived
	emitStatus := time.Since(st.lastRecordingStatusAt) >= svc.cfg.RecordingStatusEvery
	if emitStatus {
		st.lastRecordingStatusAt = time.Now()
	}
	st.mu.Unlock()

	if streaming != nil {
		streaming.Send(pcm)
	}

	if emitStatus {
		svc.emitRecordingStatus(st, pcmLen, frames)
	}

	svc.evaluateSuggestionGate(sessionID)

	return nil
}

func (svc *Service) emitRecordingStatus(st *sessionState, pcmLen, frames int) {
	st.mu.Lock()
	socket := st.socket
	st.mu.Unlock()
	if socket == nil {
		return
	}
	bytesPerSecond := float64(svc.cfg.SampleRate * svc.cfg.BytesPerSample)
	payload := RecordingStatusPayload{
		AudioSizeMB:              float64(pcmLen) / (1 << 20),
		AudioChunks:              frames,
		EstimatedDurationSeconds: float64(pcmLen) / bytesPerSecond,
		Message:                  "recording",
	}
	if err := socket.Send("recording-status", payload); err != nil {
		svc.logger.Warn("send recording-status failed", "sessionId", st.id, "error", err)
	}
}

func (svc *Service) emitError(st *sessionState, code, message string) {
	if st == nil {
		return
	}
	st.mu.Lock()
	socket := st.socket
	st.mu.Unlock()
	if socket == nil {
		return
	}
	if err := socket.Send("error", ErrorPayload{Message: message, Code: code}); err != nil {
		svc.logger.Warn("send error event failed", "sessionId", st.id, "error", err)
	}
}

// onStreamingPartial persists and fans out one streaming-transcriber result
// (always isFinal=true per §4.3's flush policy — the streaming transcriber
// never emits a non-final partial, it only flushes completed windows).
func (svc *Service) onStreamingPartial(sessionID, text string, isFinal bool) {
	if strings.TrimSpace(text) == "" {
		return
	}
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}
	now := time.Now()

	ctx := context.Background()
	t := &store.Transcript{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		DeckID:    st.deckID,
		Timestamp: now,
		Text:      text,
		IsFinal:   isFinal,
	}
	if err := svc.store.Transcripts.Append(ctx, t); err != nil {
		svc.logger.Error("persist streaming transcript failed", "sessionId", sessionID, "error", err)
	}

	if isFinal {
		st.mu.Lock()
		st.pushRecentFinal(text, now, 3*time.Minute)
		socket := st.socket
		st.mu.Unlock()
		if socket != nil {
			socket.Send("transcription", TranscriptionPayload{Text: text, IsFinal: true, Timestamp: now})
		}
	}
}

func (svc *Service) onStreamingError(sessionID string, err error) {
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}
	svc.logger.Warn("streaming transcription error", "sessionId", sessionID, "error", err)
	if svc.metrics != nil {
		svc.metrics.RecordProviderError(context.Background(), "stt", "streaming")
	}
	svc.emitError(st, CodeTranscriptionError, err.Error())
}

// resolveSTT resolves (and caches) the tenant's transcription provider
// client, decrypting an override API key from the tenant's Organization row
// if one is configured, falling back to the deployment default.
func (svc *Service) resolveSTT(ctx context.Context, tenantID string) (transcript.Provider, error) {
	cacheKey := "stt:" + tenantID
	if cached, ok := svc.clientCache.Get(cacheKey); ok {
		return cached.(transcript.Provider), nil
	}
	apiKey := svc.resolveTenantKey(ctx, tenantID, func(k tenantProviderKeys) string { return k.STTKey }, svc.defaultSTTKey)
	if apiKey == "" {
		return nil, ErrProviderKeyMissing
	}
	client := svc.sttFactory(apiKey)
	svc.clientCache.Put(cacheKey, client)
	return client, nil
}

func (svc *Service) resolveLLM(ctx context.Context, tenantID string) (llm.Generator, error) {
	cacheKey := "llm:" + tenantID
	if cached, ok := svc.clientCache.Get(cacheKey); ok {
		return cached.(llm.Generator), nil
	}
	apiKey := svc.resolveTenantKey(ctx, tenantID, func(k tenantProviderKeys) string { return k.LLMKey }, svc.defaultLLMKey)
	if apiKey == "" {
		return nil, ErrProviderKeyMissing
	}
	client := svc.llmFactory(apiKey)
	svc.clientCache.Put(cacheKey, client)
	return client, nil
}

func (svc *Service) resolveTenantKey(ctx context.Context, tenantID string, pick func(tenantProviderKeys) string, fallback string) string {
	org, err := svc.store.Organizations.Get(ctx, tenantID)
	if err != nil || len(org.EncryptedAPIKeys) == 0 {
		return fallback
	}
	plain, err := svc.cipher.Decrypt(org.EncryptedAPIKeys)
	if err != nil {
		svc.logger.Warn("decrypt tenant keys failed", "tenantId", tenantID, "error", err)
		return fallback
	}
	var keys tenantProviderKeys
	if err := json.Unmarshal(plain, &keys); err != nil {
		return fallback
	}
	if v := pick(keys); v != "" {
		return v
	}
	return fallback
}

// Stop implements Attached/Recording→Ending (spec §4.7), triggered either
// explicitly or by autoStop. It is idempotent (invariant 3): the first call
// wins and runs finalization exactly once; later calls return the same
// optimistic snapshot.
func (svc *Service) Stop(ctx context.Context, sessionID string) (endedAt time.Time, durationSeconds float64, err error) {
	st, registered := svc.registry.get(sessionID)
	if registered {
		st.mu.Lock()
		if st.stopped {
			sess := st.session
			st.mu.Unlock()
			if sess != nil {
				if sess.EndedAt != nil {
					endedAt = *sess.EndedAt
				}
				if sess.DurationSeconds != nil {
					durationSeconds = *sess.DurationSeconds
				}
			}
			return endedAt, durationSeconds, nil
		}
		st.stopped = true
		watchdogCancel := st.watchdogCancel
		st.mu.Unlock()
		if watchdogCancel != nil {
			watchdogCancel()
		}
	}

	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return time.Time{}, 0, ErrSessionNotFound
		}
		return time.Time{}, 0, err
	}

	// Already ended by a prior call (e.g. watchdog auto-stop raced a
	// concurrent explicit stop): return the existing snapshot rather than
	// re-running finalization.
	if sess.Status != store.SessionActive {
		if sess.EndedAt != nil {
			endedAt = *sess.EndedAt
		}
		if sess.DurationSeconds != nil {
			durationSeconds = *sess.DurationSeconds
		}
		return endedAt, durationSeconds, nil
	}

	endedAt = time.Now()
	durationSeconds = endedAt.Sub(sess.StartedAt).Seconds()
	sess.Status = store.SessionEnded
	sess.EndedAt = &endedAt
	sess.DurationSeconds = &durationSeconds
	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		svc.logger.Error("persist stop failed", "sessionId", sessionID, "error", err)
	}
	if registered {
		st.mu.Lock()
		st.session = sess
		st.mu.Unlock()
	}
	if svc.metrics != nil {
		svc.metrics.RecordSessionEnded(ctx, "stopped")
	}

	go svc.finalize(sessionID)

	return endedAt, durationSeconds, nil
}

// autoStop is the Watchdog's entry point into Ending (spec §4.6). It shares
// Stop's idempotency path by reusing the same optimistic-transition logic.
func (svc *Service) autoStop(sessionID string) {
	endedAt, durationSeconds, err := svc.Stop(context.Background(), sessionID)
	if err != nil {
		svc.logger.Warn("auto-stop failed", "sessionId", sessionID, "error", err)
		return
	}
	if svc.metrics != nil {
		svc.metrics.AutoStops.Add(context.Background(), 1)
	}
	if st, ok := svc.registry.get(sessionID); ok {
		svc.emitAutoStopped(st, endedAt, durationSeconds)
	}
}

func (svc *Service) emitAutoStopped(st *sessionState, endedAt time.Time, durationSeconds float64) {
	st.mu.Lock()
	socket := st.socket
	st.mu.Unlock()
	if socket == nil {
		return
	}
	payload := SessionAutoStoppedPayload{Reason: "inactive 4m", EndedAt: endedAt, TotalDuration: durationSeconds}
	if err := socket.Send("session-auto-stopped", payload); err != nil {
		svc.logger.Warn("send session-auto-stopped failed", "sessionId", st.id, "error", err)
	}
}

// finalize implements Ending→Finalized (or →Failed, spec §4.7/§4.9): close
// the streaming sub-task, transcribe the cumulative PCM in full, persist the
// authoritative segments, generate the summary, and remove the Registry
// entry. Any terminal error here marks the session Failed but preserves
// whatever partial transcripts were already persisted live.
func (svc *Service) finalize(sessionID string) {
	ctx := context.Background()
	start := time.Now()
	defer svc.registry.remove(sessionID)
	defer func() {
		if svc.metrics != nil {
			svc.metrics.FinalizeDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	var pcmSnapshot []byte
	if st, ok := svc.registry.get(sessionID); ok {
		st.mu.Lock()
		streaming := st.streaming
		pcmSnapshot = make([]byte, st.pcm.Len())
		copy(pcmSnapshot, st.pcm.Bytes())
		st.mu.Unlock()
		if streaming != nil {
			streaming.Close(ctx)
		}
		if svc.metrics != nil {
			svc.metrics.ActiveSessions.Add(ctx, -1)
		}
	}

	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		svc.logger.Error("finalize: reload session failed", "sessionId", sessionID, "error", err)
		return
	}
	tenantID := sess.TenantID

	provider, err := svc.resolveSTT(ctx, tenantID)
	if err != nil {
		svc.logger.Warn("finalize: resolve stt failed", "sessionId", sessionID, "error", err)
		svc.failSession(ctx, sess)
		return
	}

	sttStart := time.Now()
	result, err := transcript.NewFullAudio(provider).TranscribeComplete(ctx, pcmSnapshot, transcript.Options{
		SampleRate: svc.cfg.SampleRate,
		Diarize:    true,
	})
	if svc.metrics != nil {
		svc.metrics.TranscriptionDuration.Record(ctx, time.Since(sttStart).Seconds())
	}
	if err != nil {
		svc.logger.Warn("finalize: full-audio transcription failed", "sessionId", sessionID, "error", err)
		svc.failSession(ctx, sess)
		return
	}

	participants := map[string]struct{}{}
	for _, seg := range result.Segments {
		ts := sess.StartedAt.Add(time.Duration(seg.Start * float64(time.Second)))
		t := &store.Transcript{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			DeckID:    sess.DeckID,
			Timestamp: ts,
			Text:      seg.Text,
			Speaker:   seg.Speaker,
			IsFinal:   true,
		}
		if err := svc.store.Transcripts.Append(ctx, t); err != nil {
			svc.logger.Error("finalize: persist segment failed", "sessionId", sessionID, "error", err)
		}
		if seg.Speaker != "" {
			participants[seg.Speaker] = struct{}{}
		}
	}
	if result.Language != "" {
		sess.DetectedLanguages = appendUnique(sess.DetectedLanguages, result.Language)
	}

	kbContext, err := svc.assembleContext(ctx, sess.DeckID, tenantID)
	if err != nil {
		svc.logger.Warn("finalize: assemble context failed", "sessionId", sessionID, "error", err)
	}
	generator, err := svc.resolveLLM(ctx, tenantID)
	if err != nil {
		svc.logger.Warn("finalize: resolve llm failed, falling back to deterministic summary", "sessionId", sessionID, "error", err)
	}

	participantList := make([]string, 0, len(participants))
	for name := range participants {
		participantList = append(participantList, name)
	}

	_, rendered := summarizer.NewGlue(generator).Summarize(ctx, summarizer.Input{
		Transcript:   result.Text,
		Duration:     result.Duration,
		Participants: participantList,
		Languages:    sess.DetectedLanguages,
		KBContext:    kbContext,
	})

	sess.Summary = &rendered
	sess.SummaryState = store.SummaryCompleted
	sess.TranscriptCount += len(result.Segments)
	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		svc.logger.Error("finalize: persist summary failed", "sessionId", sessionID, "error", err)
	}
}

func (svc *Service) failSession(ctx context.Context, sess *store.Session) {
	sess.Status = store.SessionFailed
	sess.SummaryState = store.SummaryFailed
	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		svc.logger.Error("persist failed session failed", "sessionId", sess.ID, "error", err)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// MarkAnswered marks a suggested question answered and triggers a
// replacement generation (spec §4.5 Replacement flow).
func (svc *Service) MarkAnswered(ctx context.Context, sessionID, questionID string) error {
	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}
	now := time.Now()
	found := false
	for i := range sess.SuggestedQuestions {
		q := &sess.SuggestedQuestions[i]
		if q.ID == questionID && !q.Answered {
			q.Answered = true
			q.AnsweredAt = &now
			found = true
		}
	}
	if !found {
		return nil // idempotent: already answered or missing, no-op
	}
	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("orchestrator: persist answered question: %w", err)
	}
	if st, ok := svc.registry.get(sessionID); ok {
		st.mu.Lock()
		st.session = sess
		st.mu.Unlock()
	}
	go svc.runReplacementSuggestion(sessionID, questionID)
	return nil
}

// DeleteQuestion marks a suggested question deleted (write-once, spec §3).
func (svc *Service) DeleteQuestion(ctx context.Context, sessionID, questionID string) error {
	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}
	for i := range sess.SuggestedQuestions {
		if sess.SuggestedQuestions[i].ID == questionID {
			sess.SuggestedQuestions[i].Deleted = true
		}
	}
	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("orchestrator: persist deleted question: %w", err)
	}
	if st, ok := svc.registry.get(sessionID); ok {
		st.mu.Lock()
		st.session = sess
		st.mu.Unlock()
	}
	return nil
}

// GetSession returns the persisted Session snapshot (Control API
// GetSession).
func (svc *Service) GetSession(ctx context.Context, sessionID string) (*store.Session, error) {
	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// GetTranscript returns the persisted Transcript entries ordered by
// timestamp (Control API GetTranscript).
func (svc *Service) GetTranscript(ctx context.Context, sessionID string) ([]store.Transcript, error) {
	return svc.store.Transcripts.ListBySession(ctx, sessionID)
}

func questionViews(qs []store.SuggestedQuestion) []QuestionView {
	views := make([]QuestionView, 0, len(qs))
	for _, q := range qs {
		views = append(views, QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Answered:   q.Answered,
			CreatedAt:  q.CreatedAt,
			AnsweredAt: q.AnsweredAt,
		})
	}
	return views
}

// assembleContext loads a session's deck/thesis/messages/documents and
// renders the deterministic KB context string (§4.8).
func (svc *Service) assembleContext(ctx context.Context, deckID, tenantID string) (string, error) {
	deck, err := svc.store.Decks.Get(ctx, deckID)
	if err != nil {
		return "", fmt.Errorf("orchestrator: get deck: %w", err)
	}
	thesis, err := svc.store.Theses.GetByOrg(ctx, tenantID)
	if err != nil {
		thesis = nil
	}
	messages, _ := svc.store.Messages.ListByDeck(ctx, deckID)
	supportingDocs, _ := svc.store.SupportingDocuments.ListByDeck(ctx, deckID)
	dataRoomDocs, _ := svc.store.DataRoomDocuments.ListByDeck(ctx, deckID)

	return contextassembler.Assemble(contextassembler.Input{
		Deck:                *deck,
		Thesis:              thesis,
		Messages:            messages,
		SupportingDocuments: supportingDocs,
		DataRoomDocuments:   dataRoomDocs,
	}), nil
}

// runInitialSuggestions is the "Initial" trigger (spec §4.5): fire-and-forget
// after join, KB-only, no transcript required.
func (svc *Service) runInitialSuggestions(sessionID string) {
	ctx := context.Background()
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}

	kbContext, err := svc.assembleContext(ctx, st.deckID, st.tenantID)
	if err != nil {
		svc.logger.Warn("assemble context for initial suggestions failed", "sessionId", sessionID, "error", err)
		return
	}
	generator, err := svc.resolveLLM(ctx, st.tenantID)
	if err != nil {
		svc.logger.Warn("resolve llm for initial suggestions failed", "sessionId", sessionID, "error", err)
		return
	}

	result, err := svc.generateSuggestions(ctx, generator, suggestion.Request{KBContext: kbContext})
	if err != nil {
		svc.logger.Warn("initial suggestion generation failed", "sessionId", sessionID, "error", err)
		return
	}

	st.mu.Lock()
	st.initialSuggestionsDone = true
	st.suggestionLastRun = time.Now()
	st.mu.Unlock()

	if len(result.Questions) == 0 {
		return
	}

	svc.mergeQuestionsAtHead(ctx, sessionID, result, "suggestion")
}

// evaluateSuggestionGate checks the Rolling trigger's gate (spec §4.5) and,
// if it passes, runs generation asynchronously.
func (svc *Service) evaluateSuggestionGate(sessionID string) {
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}
	now := time.Now()

	st.mu.Lock()
	if !st.initialSuggestionsDone {
		st.mu.Unlock()
		return
	}
	wordCount := st.recentFinalsWordCount(now, 3*time.Minute)
	gate := suggestion.RollingGate(st.initialSuggestionsDone, now, st.suggestionLastRun, wordCount)
	if gate {
		st.suggestionLastRun = now
	}
	st.mu.Unlock()

	if gate {
		go svc.runRollingSuggestions(sessionID)
	}
}

func (svc *Service) runRollingSuggestions(sessionID string) {
	ctx := context.Background()
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}

	kbContext, err := svc.assembleContext(ctx, st.deckID, st.tenantID)
	if err != nil {
		svc.logger.Warn("assemble context for rolling suggestions failed", "sessionId", sessionID, "error", err)
		return
	}
	generator, err := svc.resolveLLM(ctx, st.tenantID)
	if err != nil {
		svc.logger.Warn("resolve llm for rolling suggestions failed", "sessionId", sessionID, "error", err)
		return
	}

	st.mu.Lock()
	recentFinalsText := joinRecentFinals(st.recentFinals)
	sess := st.session
	st.mu.Unlock()
	if sess == nil {
		return
	}
	existing := questionTexts(sess.VisibleQuestions())

	result, err := svc.generateSuggestions(ctx, generator, suggestion.Request{
		KBContext:         kbContext,
		RecentFinals:      recentFinalsText,
		ExistingQuestions: existing,
	})
	if err != nil {
		svc.logger.Warn("rolling suggestion generation failed", "sessionId", sessionID, "error", err)
		return
	}
	if len(result.Questions) == 0 {
		return
	}

	svc.mergeQuestionsAtHead(ctx, sessionID, result, "suggested-questions-updated")
}

func (svc *Service) runReplacementSuggestion(sessionID, answeredQuestionID string) {
	ctx := context.Background()
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}

	kbContext, err := svc.assembleContext(ctx, st.deckID, st.tenantID)
	if err != nil {
		svc.logger.Warn("assemble context for replacement suggestion failed", "sessionId", sessionID, "error", err)
		return
	}
	generator, err := svc.resolveLLM(ctx, st.tenantID)
	if err != nil {
		svc.logger.Warn("resolve llm for replacement suggestion failed", "sessionId", sessionID, "error", err)
		return
	}

	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		return
	}
	existing := questionTexts(sess.VisibleQuestions())

	result, err := svc.generateSuggestions(ctx, generator, suggestion.Request{
		KBContext:         kbContext,
		ExistingQuestions: existing,
	})
	if err != nil || len(result.Questions) == 0 {
		return
	}

	svc.replaceQuestionSlot(ctx, sessionID, answeredQuestionID, result, "suggested-questions-updated")
}

// generateSuggestions runs the suggestion engine and records its latency.
func (svc *Service) generateSuggestions(ctx context.Context, generator llm.Generator, req suggestion.Request) (suggestion.Result, error) {
	start := time.Now()
	result, err := suggestion.NewEngine(generator).Generate(ctx, req)
	if svc.metrics != nil {
		svc.metrics.SuggestionDuration.Record(ctx, time.Since(start).Seconds())
	}
	return result, err
}

// mergeQuestionsAtHead inserts new questions at the head of the session's
// suggestedQuestions, persists, and emits the update (spec §4.5 "Ordering
// and persistence on update"). eventKind is "suggestion" for the initial/seed
// trigger or "suggested-questions-updated" for the rolling trigger, per the
// wire event table.
func (svc *Service) mergeQuestionsAtHead(ctx context.Context, sessionID string, result suggestion.Result, eventKind string) {
	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		svc.logger.Error("reload session for suggestion merge failed", "sessionId", sessionID, "error", err)
		return
	}
	now := time.Now()
	fresh := make([]store.SuggestedQuestion, 0, len(result.Questions))
	for _, text := range result.Questions {
		fresh = append(fresh, store.SuggestedQuestion{ID: uuid.NewString(), Text: text, CreatedAt: now})
	}
	sess.SuggestedQuestions = append(fresh, sess.SuggestedQuestions...)

	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		svc.logger.Error("persist suggestion merge failed", "sessionId", sessionID, "error", err)
		return
	}

	svc.commitAndEmitQuestions(sessionID, sess, result, eventKind)
}

// replaceQuestionSlot replaces the answered question's position with the
// first new question, prepending any extras (spec §4.5 Replacement flow).
func (svc *Service) replaceQuestionSlot(ctx context.Context, sessionID, answeredQuestionID string, result suggestion.Result, eventKind string) {
	sess, err := svc.store.Sessions.Get(ctx, sessionID)
	if err != nil {
		svc.logger.Error("reload session for replacement failed", "sessionId", sessionID, "error", err)
		return
	}
	now := time.Now()
	replacement := store.SuggestedQuestion{ID: uuid.NewString(), Text: result.Questions[0], CreatedAt: now}
	extras := make([]store.SuggestedQuestion, 0, len(result.Questions)-1)
	for _, text := range result.Questions[1:] {
		extras = append(extras, store.SuggestedQuestion{ID: uuid.NewString(), Text: text, CreatedAt: now})
	}

	replaced := false
	updated := make([]store.SuggestedQuestion, 0, len(sess.SuggestedQuestions)+len(extras))
	for _, q := range sess.SuggestedQuestions {
		if q.ID == answeredQuestionID && !replaced {
			updated = append(updated, replacement)
			replaced = true
			continue
		}
		updated = append(updated, q)
	}
	if !replaced {
		updated = append(updated, replacement)
	}
	sess.SuggestedQuestions = append(extras, updated...)

	if err := svc.store.Sessions.Update(ctx, sess); err != nil {
		svc.logger.Error("persist replacement failed", "sessionId", sessionID, "error", err)
		return
	}

	svc.commitAndEmitQuestions(sessionID, sess, result, eventKind)
}

// commitAndEmitQuestions caches the updated session on the registry entry
// and fans out the wire event. eventKind selects between the "suggestion"
// event (initial/seed, carries context/topics) and "suggested-questions-updated"
// (rolling/replacement), per the wire event table.
func (svc *Service) commitAndEmitQuestions(sessionID string, sess *store.Session, result suggestion.Result, eventKind string) {
	st, ok := svc.registry.get(sessionID)
	if !ok {
		return
	}
	st.mu.Lock()
	st.session = sess
	socket := st.socket
	st.mu.Unlock()
	if socket == nil {
		return
	}

	visible := questionViews(sess.VisibleQuestions())
	if eventKind == "suggestion" {
		socket.Send("suggestion", SuggestionPayload{Questions: visible, Context: result.Context, Topics: result.Topics, Timestamp: time.Now()})
		return
	}
	socket.Send("suggested-questions-updated", SuggestedQuestionsUpdatedPayload{Questions: visible})
}

func questionTexts(qs []store.SuggestedQuestion) []string {
	texts := make([]string, 0, len(qs))
	for _, q := range qs {
		texts = append(texts, q.Text)
	}
	return texts
}

func joinRecentFinals(finals []recentFinal) string {
	parts := make([]string, 0, len(finals))
	for _, f := range finals {
		parts = append(parts, f.text)
	}
	return strings.Join(parts, " ")
}
