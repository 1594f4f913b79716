package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/question-bank/internal/domain/import/parser"
	"github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/question-bank/internal/domain/import/service"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
	"github.com/FACorreiaa/question-bank/internal/domain/search"
)

// maxBodyBytes caps pasted documents and uploaded spreadsheets
const maxBodyBytes = 10 << 20

// ImportHandler serves the question import API
type ImportHandler struct {
	importSvc *importservice.ImportService
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		logger:    logger,
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type importRequest struct {
	importservice.ParseRequest
	importservice.ImportOptions
}

type batchRequest struct {
	Documents []importservice.ParseRequest `json:"documents"`
}

type topicRequest struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Analyze detects the format of a pasted document
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.importSvc.Analyze(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Preview parses and validates a document without storing it
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req importservice.ParseRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.importSvc.Preview(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PreviewBatch previews several documents at once
func (h *ImportHandler) PreviewBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "documents is required")
		return
	}
	res, err := h.importSvc.PreviewBatch(r.Context(), req.Documents)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": res})
}

// Import parses and stores a document
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.importSvc.Import(r.Context(), req.ParseRequest, req.ImportOptions)
	h.writeImport(w, r, res, err)
}

// ImportFile stores the rows of an uploaded CSV or XLSX export
func (h *ImportHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	format := importservice.ExportFormat(r.URL.Query().Get("format"))
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	res, err := h.importSvc.ImportFile(r.Context(), format, body)
	h.writeImport(w, r, res, err)
}

func (h *ImportHandler) writeImport(w http.ResponseWriter, r *http.Request, res *importservice.ImportResult, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, res)
	case res != nil && errors.Is(err, importservice.ErrNoQuestions):
		// every record was rejected
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "result": res})
	default:
		h.fail(w, r, err)
	}
}

// ListQuestions lists stored questions
func (h *ImportHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	qs, err := h.importSvc.ListQuestions(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if qs == nil {
		qs = []question.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

// GetQuestion returns one stored question
func (h *ImportHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q, err := h.importSvc.GetQuestion(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// UpdateQuestion replaces a stored question with the edited record in the body
func (h *ImportHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	q, err := question.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.importSvc.UpdateQuestion(r.Context(), id, q); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads stored questions as csv, xlsx or text
func (h *ImportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := importservice.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = importservice.ExportCSV
	}
	switch format {
	case importservice.ExportCSV, importservice.ExportXLSX, importservice.ExportText:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	n, err := h.importSvc.Export(r.Context(), format, f, &buf)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ext := string(format)
	if format == importservice.ExportText {
		ext = "txt"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="questions.%s"`, ext))
	w.Header().Set("X-Record-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Search runs a full-text query over stored questions
func (h *ImportHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	req := importservice.SearchRequest{
		Query:  q.Get("q"),
		Prefix: q.Get("prefix") == "1" || q.Get("prefix") == "true",
		Filter: search.Filter{Kind: question.Kind(q.Get("type")), Subject: q.Get("subject")},
		Limit:  limit,
	}
	res, err := h.importSvc.Search(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": res})
}

// Reindex rebuilds the search index from the database
func (h *ImportHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.importSvc.Reindex(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

// PreviewLesson parses a lesson outline without storing it
func (h *ImportHandler) PreviewLesson(w http.ResponseWriter, r *http.Request) {
	var req importservice.LessonRequest
	if !h.decode(w, r, &req) {
		return
	}
	ch, err := h.importSvc.ParseLesson(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// ImportLesson stores a lesson outline
func (h *ImportHandler) ImportLesson(w http.ResponseWriter, r *http.Request) {
	var req importservice.LessonRequest
	if !h.decode(w, r, &req) {
		return
	}
	ch, err := h.importSvc.ImportLesson(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// FetchLessons lists stored chapters, optionally for one subject
func (h *ImportHandler) FetchLessons(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.importSvc.FetchLessons(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if chapters == nil {
		chapters = []question.Chapter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

// CreateTopic inserts an empty topic into a chapter
func (h *ImportHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	chapterID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req topicRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.importSvc.CreateTopicAtPosition(r.Context(), chapterID, req.Position, req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

// AddReviewQuestions appends a pasted batch of review questions to a topic
func (h *ImportHandler) AddReviewQuestions(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	qs, err := h.importSvc.AddReviewQuestions(r.Context(), topicID, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"questions": qs})
}

// ImportOverview stores a chapter overview
func (h *ImportHandler) ImportOverview(w http.ResponseWriter, r *http.Request) {
	var req importservice.LessonRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.importSvc.ImportOverview(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RenameSubject renames a subject across lessons and questions
func (h *ImportHandler) RenameSubject(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.importSvc.RenameSubject(r.Context(), req.From, req.To)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *ImportHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *ImportHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, status, "internal error")
		return
	}

	var vErr *importservice.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, status, map[string]any{"error": err.Error(), "issues": vErr.Issues})
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	var vErr *importservice.ValidationError
	switch {
	case errors.Is(err, importservice.ErrNoQuestions),
		errors.Is(err, importservice.ErrNoTopics),
		errors.Is(err, parser.ErrEmptyInput),
		errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importservice.ErrInvalidInput),
		errors.Is(err, importservice.ErrUnknownKind),
		errors.Is(err, importservice.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, importservice.ErrSearchUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func filterFromQuery(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	f := repository.Filter{
		Kind:    question.Kind(strings.ToLower(q.Get("type"))),
		Subject: q.Get("subject"),
		Chapter: q.Get("chapter"),
		Board:   q.Get("board"),
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid %s %q", name, v)
		}
		*dst = n
	}
	return f, nil
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
