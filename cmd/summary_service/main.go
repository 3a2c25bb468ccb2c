package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"NurAI/internal/config"
	"NurAI/internal/database/mysql"
	"NurAI/internal/database/redis"
	"NurAI/internal/embedding"
	"NurAI/internal/llm"
	"NurAI/internal/summary_service/loaders"
	"NurAI/internal/summary_service/service"
	"NurAI/internal/summary_service/splitters"
	"NurAI/internal/summary_service/storages/chunkstore"
	"NurAI/internal/summary_service/storages/summarystore"
	"NurAI/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	configPath := os.Getenv("NURAI_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("SummaryService")
	appLogger.Info("Starting Summary Service...")

	// 3. Initialize Dependencies
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}

	cache, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		// The cache is an optimization; the service works without it.
		appLogger.Warn("Redis unavailable, summary cache disabled: " + err.Error())
		cache = nil
	}

	llmClient := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	embedder := embedding.NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	splitter := splitters.NewWindowSplitter(cfg.Summary.TargetTokens, cfg.Summary.OverlapTokens)

	chunkStore := chunkstore.NewMySQLStore(db, appLogger, cfg.Summary.IngestBatchSize)
	summaryStore := summarystore.NewMySQLStore(db, cache, time.Duration(cfg.Summary.CacheTTLSeconds)*time.Second, appLogger)

	// 4. Create the Summary Service
	summaryService := service.New(&cfg.Summary, appLogger, splitter, embedder, llmClient, chunkStore, summaryStore)

	// 5. Start Gin HTTP Server in a goroutine
	go func() {
		gin.SetMode(gin.ReleaseMode)
		router := gin.Default()
		httpHandler := NewHttpHandler(summaryService, cfg.Summary.BooksDir)

		api := router.Group("/api/v1")
		{
			api.POST("/summary/ingest", httpHandler.ingest)
			api.POST("/summary/build", httpHandler.build)
			api.POST("/summary/regenerate", httpHandler.regenerate)
			api.GET("/summary", httpHandler.fetch)
			api.GET("/summary/books", httpHandler.listBooks)
			api.GET("/summary/files", httpHandler.listFiles)
			api.POST("/summary/sources", httpHandler.sources)
		}

		appLogger.Info("HTTP server listening at " + cfg.Server.HTTPPort)
		if err := router.Run(cfg.Server.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	if err := mysql.Close(); err != nil {
		appLogger.Warn("Failed to close MySQL connection: " + err.Error())
	}
	if err := redis.Close(); err != nil {
		appLogger.Warn("Failed to close Redis connection: " + err.Error())
	}
	appLogger.Info("Server gracefully stopped")
}

// HttpHandler exposes the summary service over REST.
type HttpHandler struct {
	service  *service.Service
	booksDir string
}

func NewHttpHandler(service *service.Service, booksDir string) *HttpHandler {
	return &HttpHandler{service: service, booksDir: booksDir}
}

type bookRequest struct {
	Subject   string `json:"subject" binding:"required"`
	BookTitle string `json:"book_title"`
	Filename  string `json:"filename" binding:"required"`
}

// readBookText extracts the text for a book file under books/<subject>/.
func (h *HttpHandler) readBookText(c *gin.Context, subject, filename string) (string, bool) {
	path := filepath.Join(h.booksDir, subject, filepath.Base(filename))
	text := loaders.ReadText(c.Request.Context(), path)
	if text == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "message": "Файлдан мәтін оқылмады."})
		return "", false
	}
	return text, true
}

func (h *HttpHandler) ingest(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, ok := h.readBookText(c, req.Subject, req.Filename)
	if !ok {
		return
	}

	okIngest, msg, chunkIDs := h.service.IngestBook(c.Request.Context(), req.Subject, req.Filename, text)
	status := http.StatusOK
	if !okIngest {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"ok": okIngest, "message": msg, "chunk_ids": chunkIDs})
}

func (h *HttpHandler) build(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BookTitle == "" {
		req.BookTitle = req.Filename
	}

	ok, msg := h.service.BuildAndSaveSummary(c.Request.Context(), req.Subject, req.BookTitle, req.Filename)
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"ok": ok, "message": msg})
}

func (h *HttpHandler) regenerate(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BookTitle == "" {
		req.BookTitle = req.Filename
	}

	text, ok := h.readBookText(c, req.Subject, req.Filename)
	if !ok {
		return
	}

	okRegen, msg := h.service.RegenerateSummary(c.Request.Context(), req.Subject, req.BookTitle, req.Filename, text)
	status := http.StatusOK
	if !okRegen {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"ok": okRegen, "message": msg})
}

func (h *HttpHandler) fetch(c *gin.Context) {
	subject := c.Query("subject")
	bookTitle := c.Query("book_title")
	if subject == "" || bookTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and book_title are required"})
		return
	}

	rec, err := h.service.FetchSummary(c.Request.Context(), subject, bookTitle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "Суммари табылмады."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": rec})
}

func (h *HttpHandler) listBooks(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}

	books, err := h.service.ListSummaryBooks(c.Request.Context(), subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (h *HttpHandler) listFiles(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
		return
	}

	files, err := h.service.ListVectorFilenames(c.Request.Context(), subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *HttpHandler) sources(c *gin.Context) {
	var req struct {
		ChunkIDs []string `json:"chunk_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chunks, err := h.service.FetchChunksByIDs(c.Request.Context(), req.ChunkIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make(map[string]gin.H, len(chunks))
	for id, ch := range chunks {
		out[id] = gin.H{"filename": ch.Filename, "text": ch.Text}
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}
