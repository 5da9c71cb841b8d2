package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/healthfc/misinfoscan/internal/batch"
	"github.com/healthfc/misinfoscan/internal/classify"
	"github.com/healthfc/misinfoscan/internal/config"
	"github.com/healthfc/misinfoscan/internal/media"
	"github.com/healthfc/misinfoscan/internal/model"
	"github.com/healthfc/misinfoscan/internal/multimodal"
	"github.com/healthfc/misinfoscan/internal/report"
	"github.com/healthfc/misinfoscan/internal/transcribe"
)

//go:embed templates/index.html
var templateFS embed.FS

// acceptedTypes maps sniffed container types to the extension we store under.
var acceptedTypes = map[string]string{
	matchers.TypeMp4.MIME.Value: ".mp4",
	matchers.TypeMp3.MIME.Value: ".mp3",
	matchers.TypeWav.MIME.Value: ".wav",
	matchers.TypeM4a.MIME.Value: ".m4a",
}

// Server is the browser front end. NewBackend and NewProvider exist so tests
// can swap the transcription and classification wiring for stubs.
type Server struct {
	Settings config.Settings
	Sessions *store

	NewBackend  func(sess *Session) (transcribe.Backend, error)
	NewProvider func(sess *Session) (classify.Provider, error)
	NewPreparer func(sess *Session) batch.AudioPreparer
	Multimodal  *multimodal.Extractor
}

func NewServer(settings config.Settings) *Server {
	s := &Server{
		Settings: settings,
		Sessions: newStore(),
	}
	s.NewBackend = s.defaultBackend
	s.NewProvider = s.defaultProvider
	s.NewPreparer = func(sess *Session) batch.AudioPreparer {
		return &media.Preparer{TmpDir: sess.dir}
	}
	return s
}

func (s *Server) defaultBackend(sess *Session) (transcribe.Backend, error) {
	kind, _, apiKey := sess.snapshot()
	if kind == classify.KindOllama {
		return transcribe.NewFasterWhisperBackend(s.Settings.WhisperModel, "cpu"), nil
	}
	key := apiKey
	if kind != classify.KindOpenAI || key == "" {
		key = s.Settings.OpenAIKey
	}
	if key == "" {
		return transcribe.NewFasterWhisperBackend(s.Settings.WhisperModel, "cpu"), nil
	}
	return transcribe.NewOpenAIBackend(key, "whisper-1"), nil
}

func (s *Server) defaultProvider(sess *Session) (classify.Provider, error) {
	kind, modelName, apiKey := sess.snapshot()
	opts := classify.Options{
		Kind:     kind,
		APIKey:   apiKey,
		Model:    modelName,
		BaseURL:  s.Settings.OllamaHost,
		Endpoint: s.Settings.AzureEndpoint,
	}
	if opts.APIKey == "" {
		switch kind {
		case classify.KindOpenAI:
			opts.APIKey = s.Settings.OpenAIKey
		case classify.KindGemini:
			opts.APIKey = s.Settings.GeminiKey
		case classify.KindAzure:
			opts.APIKey = s.Settings.AzureKey
		}
	}
	if opts.Model == "" {
		switch kind {
		case classify.KindOpenAI:
			opts.Model = s.Settings.GPTModel
		case classify.KindAzure:
			opts.Model = s.Settings.AzureDeployment
		case classify.KindGemini:
			opts.Model = s.Settings.GeminiModel
		case classify.KindOllama:
			opts.Model = s.Settings.OllamaModel
		}
	}
	return classify.New(opts)
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = int64(s.Settings.MaxUploadMB) << 20

	tmpl := template.Must(template.ParseFS(templateFS, "templates/index.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleIndex)

	api := r.Group("/api")
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/:id/provider", s.handleSetProvider)
	api.POST("/sessions/:id/uploads", s.handleUpload)
	api.POST("/sessions/:id/analyze", s.handleAnalyze)
	api.GET("/sessions/:id/records", s.handleRecords)
	api.GET("/sessions/:id/summary", s.handleSummary)
	api.GET("/sessions/:id/export.csv", s.handleExportCSV)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"MaxUploadMB": s.Settings.MaxUploadMB,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess, err := s.Sessions.create()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) session(c *gin.Context) (*Session, bool) {
	sess, ok := s.Sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil, false
	}
	return sess, true
}

type providerRequest struct {
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
}

// handleSetProvider records the provider choice and probes the credentials.
// The key stays in memory only for the life of the session.
func (s *Server) handleSetProvider(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := classify.ParseKind(req.Provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.mu.Lock()
	sess.Provider = kind
	sess.Model = req.Model
	sess.apiKey = req.APIKey
	sess.KeyValid = false
	sess.mu.Unlock()

	p, err := s.NewProvider(sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "key_valid": false})
		return
	}
	if err := p.Probe(c.Request.Context()); err != nil {
		log.Warn("provider probe failed", "provider", kind, "err", err)
		c.JSON(http.StatusOK, gin.H{"key_valid": false, "error": err.Error()})
		return
	}
	sess.mu.Lock()
	sess.KeyValid = true
	sess.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"key_valid": true})
}

// handleUpload accepts one or more multipart files, sniffs their real type,
// and rejects anything that is not mp4, mp3, wav, or m4a.
func (s *Server) handleUpload(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files"})
		return
	}

	limit := int64(s.Settings.MaxUploadMB) << 20
	var accepted []UploadedFile
	for _, fh := range files {
		if fh.Size > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("%s exceeds %d MB limit", fh.Filename, s.Settings.MaxUploadMB),
			})
			return
		}
		up, err := saveUpload(sess, fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		accepted = append(accepted, up)
	}

	sess.mu.Lock()
	sess.Files = append(sess.Files, accepted...)
	out := append([]UploadedFile(nil), sess.Files...)
	sess.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"files": out})
}

// saveUpload sniffs the file's magic bytes and writes it into the session dir
// under a sanitized name with the extension the content actually has.
func saveUpload(sess *Session, fh *multipart.FileHeader) (UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return UploadedFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return UploadedFile{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	head = head[:n]

	kind, _ := filetype.Match(head)
	ext, ok := acceptedTypes[kind.MIME.Value]
	if !ok {
		return UploadedFile{}, fmt.Errorf("%s: unsupported content type %q, want mp4, mp3, wav, or m4a", fh.Filename, kind.MIME.Value)
	}

	base := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	if base == "" || base == "." {
		base = "clip"
	}

	// O_EXCL so a repeated base name gets a numbered suffix instead of
	// clobbering an earlier upload.
	name := base + ext
	var dst *os.File
	for i := 2; ; i++ {
		f, err := os.OpenFile(filepath.Join(sess.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			dst = f
			break
		}
		if !os.IsExist(err) {
			return UploadedFile{}, fmt.Errorf("store upload %s: %w", name, err)
		}
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	defer dst.Close()

	if _, err := dst.Write(head); err != nil {
		return UploadedFile{}, fmt.Errorf("store upload %s: %w", name, err)
	}
	size, err := io.Copy(dst, src)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("store upload %s: %w", name, err)
	}
	return UploadedFile{Name: name, Path: dst.Name(), SizeBytes: size + int64(len(head))}, nil
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

// handleAnalyze runs the full pipeline over the session's uploads and stores
// the records on the session. Runs synchronously; clips are short.
func (s *Server) handleAnalyze(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.mu.Lock()
	paths := make([]string, len(sess.Files))
	for i, f := range sess.Files {
		paths[i] = f.Path
	}
	sess.mu.Unlock()
	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no uploads to analyze"})
		return
	}

	backend, err := s.NewBackend(sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	provider, err := s.NewProvider(sess)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Credentials must check out before any clip is processed. Re-probe here
	// so env-provided keys work without a prior validate call.
	sess.mu.Lock()
	valid := sess.KeyValid
	sess.mu.Unlock()
	if !valid {
		if err := provider.Probe(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("provider credentials rejected: %v", err)})
			return
		}
		sess.mu.Lock()
		sess.KeyValid = true
		sess.mu.Unlock()
	}

	runner := &batch.Runner{
		Preparer:   s.NewPreparer(sess),
		Backend:    backend,
		Provider:   provider,
		System:     classify.BuildPrompt(req.Prompt),
		Multimodal: s.Multimodal,
		Progress: func(i, total int, name string) {
			log.Info("analyzing", "session", sess.ID, "file", name, "index", i+1, "total", total)
		},
	}
	records := runner.Run(c.Request.Context(), paths)

	sess.mu.Lock()
	sess.Records = records
	sess.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleRecords(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	records := append([]model.AnalysisRecord(nil), sess.Records...)
	sess.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleSummary(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	records := append([]model.AnalysisRecord(nil), sess.Records...)
	sess.mu.Unlock()
	c.JSON(http.StatusOK, report.Summarize(records, 15))
}

func (s *Server) handleExportCSV(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.mu.Lock()
	records := append([]model.AnalysisRecord(nil), sess.Records...)
	sess.mu.Unlock()

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="analysis_results.csv"`)
	if err := batch.WriteCSV(c.Writer, records); err != nil {
		log.Error("csv export failed", "session", sess.ID, "err", err)
	}
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.Sessions.drop(c.Param("id"))
	c.Status(http.StatusNoContent)
}
