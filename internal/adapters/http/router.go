package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat/internal/config"
	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
	"docchat/internal/observability/metrics"
)

const serviceName = "docchat-api"

// PathResolver resolves a storage key to an on-disk path the extractor can
// open directly.
type PathResolver interface {
	FullPath(key string) string
}

type Router struct {
	service   ports.ConversationService
	storage   ports.ObjectStorage
	paths     PathResolver
	extractor ports.TextExtractor
	metrics   *metrics.HTTPServerMetrics
	cfg       config.Config
}

func NewRouter(
	service ports.ConversationService,
	storage ports.ObjectStorage,
	paths PathResolver,
	extractor ports.TextExtractor,
	m *metrics.HTTPServerMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		service:   service,
		storage:   storage,
		paths:     paths,
		extractor: extractor,
		metrics:   m,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.welcome)
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/uploadfile", rt.uploadFile)
	mux.HandleFunc("/rag_chat", rt.ragChat)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.BackpressureLimit > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.BackpressureLimit, 100*time.Millisecond)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) welcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Document chat service is running",
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var iconByExtension = map[string]string{
	".pdf":    "📄",
	".png":    "🖼️",
	".jpg":    "🖼️",
	".jpeg":   "🖼️",
	".txt":    "📄",
	".docx":   "📝",
	".xlsx":   "📊",
	".db":     "🗄️",
	".sqlite": "🗄️",
}

func iconFor(ext string) string {
	if icon, ok := iconByExtension[ext]; ok {
		return icon
	}
	return "📁"
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	filename := sanitizeFilename(fileHeader.Filename)
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file selected"})
		return
	}
	ext := strings.ToLower(filepath.Ext(filename))

	key := uuid.NewString() + ext
	if err := rt.storage.Save(r.Context(), key, file); err != nil {
		rt.recordUpload(ext, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store file"})
		return
	}

	text, err := rt.extractor.Extract(r.Context(), rt.paths.FullPath(key))
	if err != nil {
		rt.recordUpload(ext, err)
		writeError(w, err)
		return
	}

	session, err := rt.service.CreateSession(r.Context(), text)
	if err != nil {
		rt.recordUpload(ext, err)
		writeError(w, err)
		return
	}
	rt.recordUpload(ext, nil)

	filetype := fileHeader.Header.Get("Content-Type")
	if filetype == "" {
		filetype = strings.TrimPrefix(ext, ".")
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "File processed successfully",
		"filename":   filename,
		"filetype":   filetype,
		"icon":       iconFor(ext),
		"session_id": session.ID,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     struct {
		Query string `json:"query"`
		Image string `json:"image"`
	} `json:"query"`
}

func (rt *Router) ragChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	query := domain.Query{Text: req.Query.Query}
	if req.Query.Image != "" {
		image, err := base64.StdEncoding.DecodeString(req.Query.Image)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base64 image"})
			return
		}
		query.Image = image
	}

	start := time.Now()
	result, err := rt.service.Converse(r.Context(), req.SessionID, query)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, result.ContextChunks, time.Since(start))
	}

	history := make([]map[string]string, 0, len(result.History))
	for _, turn := range result.History {
		history = append(history, map[string]string{
			"role":    string(turn.Role),
			"content": turn.Content,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chat_history": history,
		"response":     result.Answer,
	})
}

func (rt *Router) recordUpload(ext string, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, strings.TrimPrefix(ext, "."), err)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
