// Command server wires config, persistence, providers, and the two
// transport surfaces (attach-channel websocket + control API) into one
// running orchestrator process.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/pitchloop-ai/session-orchestrator/internal/config"
	"github.com/pitchloop-ai/session-orchestrator/internal/logging"
	"github.com/pitchloop-ai/session-orchestrator/internal/metrics"
	"github.com/pitchloop-ai/session-orchestrator/pkg/authtoken"
	"github.com/pitchloop-ai/session-orchestrator/pkg/blobstore"
	"github.com/pitchloop-ai/session-orchestrator/pkg/httpapi"
	"github.com/pitchloop-ai/session-orchestrator/pkg/llm"
	llmprovider "github.com/pitchloop-ai/session-orchestrator/pkg/providers/llm"
	sttprovider "github.com/pitchloop-ai/session-orchestrator/pkg/providers/stt"
	"github.com/pitchloop-ai/session-orchestrator/pkg/orchestrator"
	"github.com/pitchloop-ai/session-orchestrator/pkg/store"
	"github.com/pitchloop-ai/session-orchestrator/pkg/tenantkey"
	"github.com/pitchloop-ai/session-orchestrator/pkg/transcript"
	"github.com/pitchloop-ai/session-orchestrator/pkg/wsapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsShutdown, err := metrics.InitProvider(ctx, cfg.ServiceName)
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}
	defer metricsShutdown(context.Background())

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := &store.Store{
		Sessions:            store.NewPgxSessions(pool),
		Transcripts:         store.NewPgxTranscripts(pool),
		Decks:               store.NewPgxDecks(pool),
		Theses:              store.NewPgxTheses(pool),
		Messages:            store.NewPgxMessages(pool),
		SupportingDocuments: store.NewPgxSupportingDocuments(pool),
		DataRoomDocuments:   store.NewPgxDataRoomDocuments(pool),
		Organizations:       store.NewPgxOrganizations(pool),
		Users:               store.NewPgxUsers(pool),
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.Config{
		Region: cfg.S3Region,
		Bucket: cfg.S3Bucket,
	})
	if err != nil {
		logger.Error("blobstore init failed", "error", err)
		os.Exit(1)
	}

	cipher := tenantkey.NewCipher([]byte(cfg.TenantKeyMasterKey))
	clientCache := tenantkey.NewClientCache(256)
	issuer := authtoken.NewIssuer([]byte(cfg.JWTSigningSecret), time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	sttFactory := buildSTTFactory(cfg.DefaultSTTProvider)
	llmFactory := buildLLMFactory(cfg.DefaultLLMProvider)

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.WatchdogTick = time.Duration(cfg.WatchdogTickSeconds) * time.Second
	orchCfg.SilenceTimeout = time.Duration(cfg.SilenceTimeoutSeconds) * time.Second
	orchCfg.RecordingStatusEvery = time.Duration(cfg.RecordingStatusEverySeconds) * time.Second

	svc := orchestrator.NewService(orchCfg, logger, st, sttFactory, llmFactory,
		cfg.DefaultSTTAPIKey, cfg.DefaultLLMAPIKey, cipher, clientCache, issuer)

	if met, err := metrics.New(otel.GetMeterProvider()); err != nil {
		logger.Warn("metrics instruments init failed, recording disabled", "error", err)
	} else {
		svc.SetMetrics(met)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	httpapi.New(svc, blobs, st.SupportingDocuments, st.DataRoomDocuments).Register(engine)
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	wsServer := wsapi.New(svc, issuer)
	engine.GET("/v1/attach", gin.WrapH(http.HandlerFunc(wsServer.ServeHTTP)))

	srv := &http.Server{
		Addr:    cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Handler: engine,
	}

	// Metrics are scraped on their own port, off the engine that serves the
	// attach channel and control API, so a Prometheus scrape config never
	// needs to share network policy with the public-facing routes.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.Host + ":" + strconv.Itoa(cfg.MetricsPort),
		Handler: metricsMux,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Shutdown(shutdownCtx)
}

func buildSTTFactory(provider string) orchestrator.STTFactory {
	return func(apiKey string) transcript.Provider {
		switch provider {
		case "openai":
			return sttprovider.NewOpenAISTT(apiKey, "whisper-1")
		case "assemblyai":
			return sttprovider.NewAssemblyAISTT(apiKey)
		case "groq":
			return sttprovider.NewGroqSTT(apiKey, "whisper-large-v3-turbo")
		case "deepgram":
			fallthrough
		default:
			return sttprovider.NewDeepgramSTT(apiKey)
		}
	}
}

func buildLLMFactory(provider string) orchestrator.LLMFactory {
	return func(apiKey string) llm.Generator {
		switch provider {
		case "anthropic":
			return llmprovider.NewAnthropicLLM(apiKey, "claude-3-5-sonnet-20241022")
		case "google":
			return llmprovider.NewGoogleLLM(apiKey, "gemini-1.5-flash")
		case "groq":
			return llmprovider.NewGroqLLM(apiKey, "llama-3.3-70b-versatile")
		case "openai":
			fallthrough
		default:
			return llmprovider.NewOpenAILLM(apiKey, "gpt-4o")
		}
	}
}
