package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wordflowlab/voicedoc/pkg/appconfig"
	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/pipeline"
	"github.com/wordflowlab/voicedoc/pkg/provider"
	"github.com/wordflowlab/voicedoc/pkg/rag"
	"github.com/wordflowlab/voicedoc/pkg/speech"
	"github.com/wordflowlab/voicedoc/pkg/telemetry"
	"github.com/wordflowlab/voicedoc/pkg/types"
	"github.com/wordflowlab/voicedoc/pkg/vector"
	"github.com/wordflowlab/voicedoc/pkg/vector/bolt"
	"github.com/wordflowlab/voicedoc/pkg/vector/pgvector"
	"github.com/wordflowlab/voicedoc/server"
)

// runServe 组装依赖并启动 HTTP Server。
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	host := fs.String("host", "", "Override listen host")
	port := fs.Int("port", 0, "Override listen port")
	mode := fs.String("mode", "", "Server mode: development, production")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// .env 不存在时静默跳过
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := setupLogging(cfg); err != nil {
		return err
	}

	metrics, err := setupMetrics(cfg)
	if err != nil {
		return err
	}
	recorder := telemetry.NewRecorder(metrics)

	prov, err := provider.NewGeminiProvider(&types.ModelConfig{
		Provider:    cfg.Model.Provider,
		Model:       cfg.Model.Model,
		APIKey:      cfg.ModelAPIKey(),
		BaseURL:     cfg.Model.BaseURL,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
	})
	if err != nil {
		return fmt.Errorf("create model provider: %w", err)
	}
	defer prov.Close()

	embedder := buildEmbedder(cfg)
	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("create vector store: %w", err)
	}
	defer store.Close()

	chunker, err := rag.NewChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return fmt.Errorf("create chunker: %w", err)
	}

	classifier := pipeline.NewClassifier(prov, recorder)
	ingestor := rag.NewIngestor(chunker, embedder, store, classifier)
	retriever := rag.NewRetriever(embedder, store, cfg.VectorStore.TopK)
	pipe := pipeline.New(prov, recorder)

	deps := &server.Dependencies{
		Generator:  pipe,
		Retriever:  retriever,
		Ingestor:   ingestor,
		Recorder:   recorder,
		StoreCheck: storeCheck(store),
	}

	if cfg.Speech.Enabled {
		var opts []speech.ElevenLabsOption
		if cfg.Speech.BaseURL != "" {
			opts = append(opts, speech.WithBaseURL(cfg.Speech.BaseURL))
		}
		synth, err := speech.NewElevenLabs(cfg.SpeechAPIKey(), opts...)
		if err != nil {
			return fmt.Errorf("create speech synthesizer: %w", err)
		}
		defer synth.Close()
		deps.Synthesizer = synth
	}

	srvCfg := buildServerConfig(cfg, *mode)
	srv, err := server.New(srvCfg, deps)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func loadConfig(path string) (*appconfig.Config, error) {
	if path == "" {
		return appconfig.Default(), nil
	}
	cfg, err := appconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *appconfig.Config) error {
	transports := []logging.Transport{logging.NewStdoutTransport()}
	if cfg.Logging.File != "" {
		ft, err := logging.NewFileTransport(cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		transports = append(transports, ft)
	}
	logging.Default = logging.NewLogger(logging.Level(cfg.Logging.Level), transports...)
	return nil
}

func setupMetrics(cfg *appconfig.Config) (telemetry.Metrics, error) {
	if cfg.Telemetry.StatsdAddr == "" {
		return telemetry.NewSimpleMetrics(), nil
	}
	sink, err := telemetry.NewStatsdSink(telemetry.StatsdConfig{
		Addr:      cfg.Telemetry.StatsdAddr,
		Namespace: cfg.Telemetry.Namespace,
		Tags: map[string]string{
			"service": cfg.Telemetry.Service,
			"env":     cfg.Telemetry.Env,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect statsd: %w", err)
	}
	return sink, nil
}

func buildEmbedder(cfg *appconfig.Config) vector.Embedder {
	if cfg.Embedder.Kind == "mock" {
		log.Println("[WARN] using mock embedder, retrieval quality will be meaningless")
		return vector.NewMockEmbedder(cfg.VectorStore.Dimension)
	}
	e := vector.NewVertexEmbedder(cfg.Embedder.Project, cfg.Embedder.Location, cfg.Embedder.Model, cfg.EmbedderAPIKey())
	e.BaseURL = cfg.Embedder.BaseURL
	return e
}

func buildStore(cfg *appconfig.Config) (vector.Store, error) {
	switch cfg.VectorStore.Kind {
	case "pgvector":
		return pgvector.New(&pgvector.Config{
			DSN:       cfg.VectorStore.DSN,
			Table:     cfg.VectorStore.Table,
			Dimension: cfg.VectorStore.Dimension,
		})
	case "bolt":
		return bolt.New(cfg.VectorStore.Path)
	default:
		return vector.NewMemoryStore(), nil
	}
}

// storeCheck 返回健康检查探针。支持 Ping 的存储走真实连通性探测,
// 其余存储用空 Delete 验证可用性。
func storeCheck(store vector.Store) func(ctx context.Context) error {
	if p, ok := store.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		return store.Delete(ctx, nil)
	}
}

func buildServerConfig(cfg *appconfig.Config, mode string) *server.Config {
	srvCfg := server.DefaultConfig()
	if mode == "production" {
		srvCfg = server.ProductionConfig()
	}
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	if cfg.Server.ReadTimeout > 0 {
		srvCfg.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		srvCfg.WriteTimeout = cfg.Server.WriteTimeout
	}
	srvCfg.Observability.Tracing.Enabled = cfg.Telemetry.Tracing
	if cfg.Telemetry.OTLPEndpoint != "" {
		srvCfg.Observability.Tracing.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	srvCfg.Observability.Tracing.ServiceName = cfg.Telemetry.Service
	srvCfg.Observability.Tracing.Environment = cfg.Telemetry.Env
	return srvCfg
}
