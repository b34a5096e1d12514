package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/memo-bridge/internal/bridge"
	"github.com/xaenox/memo-bridge/internal/knowledge"
	"github.com/xaenox/memo-bridge/internal/models"
	"github.com/xaenox/memo-bridge/internal/storage"
	"go.uber.org/zap"
)

const defaultExchangeLimit = 20

// Asker is implemented by *bridge.Service.
type Asker interface {
	Ask(ctx context.Context, req bridge.AskRequest) (bridge.AskResult, error)
}

// Memory is implemented by *knowledge.Reader.
type Memory interface {
	MemoryEntries(ctx context.Context) ([]models.MemoryEntry, error)
	ListBlocks(ctx context.Context, parentID string) ([]models.BlockSummary, error)
}

// Appender is implemented by *knowledge.Writer.
type Appender interface {
	AppendParagraph(ctx context.Context, parentID, text string) error
}

// Editor is implemented by *knowledge.Editor.
type Editor interface {
	UpdateText(ctx context.Context, blockID, text string) error
	Delete(ctx context.Context, blockID string) error
	Apply(ctx context.Context, actions []knowledge.Action) []knowledge.ActionResult
}

type Deps struct {
	Asker    Asker
	Memory   Memory
	Appender Appender
	Editor   Editor
	Journal  storage.Storage
}

type Server struct {
	deps      Deps
	staticDir string
	logger    *zap.Logger
}

func New(deps Deps, staticDir string, logger *zap.Logger) *Server {
	return &Server{deps: deps, staticDir: staticDir, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "memo-bridge"})
	})

	router.GET("/", s.getMemory)
	router.POST("/ask", s.ask)
	router.POST("/write_to_page", s.writeToPage)
	router.POST("/update_block", s.updateBlock)
	router.POST("/delete_block", s.deleteBlock)
	router.POST("/bulk_edit_blocks", s.bulkEditBlocks)
	router.POST("/list_blocks", s.listBlocks)
	router.GET("/exchanges", s.listExchanges)

	router.StaticFile("/.well-known/ai-plugin.json", filepath.Join(s.staticDir, ".well-known", "ai-plugin.json"))
	router.StaticFile("/schema.json", filepath.Join(s.staticDir, "schema.json"))

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// getMemory never fails: a store error becomes a single error entry.
func (s *Server) getMemory(c *gin.Context) {
	entries, err := s.deps.Memory.MemoryEntries(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to fetch memory entries", zap.Error(err))
		entries = []models.MemoryEntry{{Title: "Error", Summary: err.Error(), Tags: []string{}}}
	}
	c.JSON(http.StatusOK, gin.H{"memory": entries})
}

type askRequest struct {
	Prompt   string   `json:"prompt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Classify bool     `json:"classify"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.deps.Asker.Ask(c.Request.Context(), bridge.AskRequest{
		Prompt:   req.Prompt,
		Category: req.Category,
		Tags:     req.Tags,
		Classify: req.Classify,
	})
	if errors.Is(err, bridge.ErrMissingPrompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt"})
		return
	}
	if err != nil {
		s.fail(c, "ask", err)
		return
	}

	body := gin.H{
		"reply":     res.Exchange.Reply,
		"id":        res.Exchange.ID,
		"record_id": res.Exchange.RecordID,
		"category":  res.Exchange.Category,
		"tags":      res.Exchange.Tags,
	}
	if res.StoreErr != nil {
		body["store_error"] = res.StoreErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

type writeRequest struct {
	PageID string `json:"page_id"`
	Text   string `json:"text"`
}

func (s *Server) writeToPage(c *gin.Context) {
	var req writeRequest
	if !s.bind(c, &req) {
		return
	}
	if req.PageID == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing page_id or text"})
		return
	}

	if err := s.deps.Appender.AppendParagraph(c.Request.Context(), req.PageID, req.Text); err != nil {
		s.fail(c, "write_to_page", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type blockRequest struct {
	BlockID string `json:"block_id"`
	Text    string `json:"text"`
}

func (s *Server) updateBlock(c *gin.Context) {
	var req blockRequest
	if !s.bind(c, &req) {
		return
	}
	if req.BlockID == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing block_id or text"})
		return
	}

	if err := s.deps.Editor.UpdateText(c.Request.Context(), req.BlockID, req.Text); err != nil {
		s.fail(c, "update_block", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) deleteBlock(c *gin.Context) {
	var req blockRequest
	if !s.bind(c, &req) {
		return
	}
	if req.BlockID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing block_id"})
		return
	}

	if err := s.deps.Editor.Delete(c.Request.Context(), req.BlockID); err != nil {
		s.fail(c, "delete_block", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type bulkRequest struct {
	Actions []knowledge.Action `json:"actions"`
}

func (s *Server) bulkEditBlocks(c *gin.Context) {
	var req bulkRequest
	if !s.bind(c, &req) {
		return
	}
	if len(req.Actions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'actions' list"})
		return
	}

	c.JSON(http.StatusOK, s.deps.Editor.Apply(c.Request.Context(), req.Actions))
}

type listBlocksRequest struct {
	PageID string `json:"page_id"`
}

func (s *Server) listBlocks(c *gin.Context) {
	var req listBlocksRequest
	if !s.bind(c, &req) {
		return
	}
	if req.PageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing page_id"})
		return
	}

	blocks, err := s.deps.Memory.ListBlocks(c.Request.Context(), req.PageID)
	if err != nil {
		s.fail(c, "list_blocks", err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

func (s *Server) listExchanges(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultExchangeLimit)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	exchanges, err := s.deps.Journal.RecentExchanges(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, "exchanges", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchanges": exchanges})
}

// bind decodes the JSON body. An empty body decodes as an empty object so
// the handler can report the missing fields.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, route string, err error) {
	s.logger.Error("Request failed", zap.Error(err), zap.String("route", route))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
