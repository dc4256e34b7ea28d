package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/yuin/goldmark"

	"github.com/r3d91ll/quire/pkg/board"
	"github.com/r3d91ll/quire/pkg/crew"
	qerrors "github.com/r3d91ll/quire/pkg/errors"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/paper"
	"github.com/r3d91ll/quire/pkg/pipeline"
)

const maxBodyBytes = 1 << 16

//go:embed ui/*.html
var uiFS embed.FS

// paperRequestSchema checks the shape of POST /api/papers bodies. Value
// checks (known subject, grade range) stay with the request builder.
const paperRequestSchema = `{
  "type": "object",
  "properties": {
    "subject": {"type": "string", "minLength": 1},
    "grade":   {"type": ["string", "integer"]},
    "board":   {"type": "string", "minLength": 1}
  },
  "required": ["subject", "grade", "board"],
  "additionalProperties": false
}`

// Runner runs one selection through the pipeline.
type Runner interface {
	Run(ctx context.Context, sel paper.Selection) (*pipeline.Outcome, error)
}

// PaperHandler serves the paper form, generation and downloads.
type PaperHandler struct {
	runner Runner
	boards *board.Table
	store  *PaperStore
	hub    *Hub
	log    logger.Logger

	schema *gojsonschema.Schema
	pages  *template.Template
	md     goldmark.Markdown
}

// NewPaperHandler creates a PaperHandler. hub may be nil.
func NewPaperHandler(runner Runner, boards *board.Table, store *PaperStore, hub *Hub, log logger.Logger) (*PaperHandler, error) {
	if log == nil {
		log = logger.NewNoOp()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(paperRequestSchema))
	if err != nil {
		return nil, qerrors.Internal(qerrors.ErrInternalError, "invalid paper request schema").WithCause(err)
	}
	pages, err := template.ParseFS(uiFS, "ui/*.html")
	if err != nil {
		return nil, qerrors.Internal(qerrors.ErrInternalError, "invalid page templates").WithCause(err)
	}
	return &PaperHandler{
		runner: runner,
		boards: boards,
		store:  store,
		hub:    hub,
		log:    log,
		schema: schema,
		pages:  pages,
		md:     newMarkdown(),
	}, nil
}

// RegisterRoutes registers the paper routes on the router.
func (h *PaperHandler) RegisterRoutes(router *Router) {
	router.GET("/", h.Index)
	router.GET("/api/options", h.Options)
	router.POST("/api/papers", h.CreatePaper)
	router.GET("/api/papers/:id/pdf", h.DownloadPaper)
	router.POST("/papers", h.SubmitForm)
}

// -----------------------------------------------------------------------------
// API Types
// -----------------------------------------------------------------------------

// OptionsResponse lists what the form offers.
type OptionsResponse struct {
	Subjects []string `json:"subjects"`
	Grades   []int    `json:"grades"`
	Boards   []string `json:"boards"`
}

// PaperRequest is the JSON body of POST /api/papers. Grade may be sent
// as a number or a string.
type PaperRequest struct {
	Subject string      `json:"subject"`
	Grade   json.Number `json:"grade"`
	Board   string      `json:"board"`
}

// PaperResponse describes a generated paper.
type PaperResponse struct {
	ID          string `json:"id,omitempty"`
	Subject     string `json:"subject"`
	Grade       int    `json:"grade"`
	Board       string `json:"board"`
	Direction   string `json:"direction"`
	Language    string `json:"language,omitempty"`
	Filename    string `json:"filename"`
	Text        string `json:"text"`
	PreviewHTML string `json:"preview_html"`
	Pages       int    `json:"pages"`
	DownloadURL string `json:"download_url,omitempty"`
	// Tasks holds each crew step's output, in order.
	Tasks []crew.TaskOutput `json:"tasks,omitempty"`
}

// -----------------------------------------------------------------------------
// JSON Handlers
// -----------------------------------------------------------------------------

// Options handles GET /api/options.
func (h *PaperHandler) Options(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.options())
}

func (h *PaperHandler) options() OptionsResponse {
	resp := OptionsResponse{Boards: h.boards.Boards()}
	for _, s := range paper.Subjects() {
		resp.Subjects = append(resp.Subjects, string(s))
	}
	for _, g := range paper.Grades() {
		resp.Grades = append(resp.Grades, int(g))
	}
	return resp
}

// CreatePaper handles POST /api/papers.
func (h *PaperHandler) CreatePaper(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteFailure(w, qerrors.Validation(qerrors.ErrValidationInvalidBody, "request body too large or unreadable"), nil)
		return
	}
	if err := h.validateBody(body); err != nil {
		WriteFailure(w, err, nil)
		return
	}
	var req PaperRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteFailure(w, qerrors.Validation(qerrors.ErrValidationInvalidBody, "invalid JSON body").WithCause(err), nil)
		return
	}

	sel := paper.Selection{Subject: req.Subject, Grade: req.Grade.String(), Board: req.Board}
	resp, err := h.generate(r, sel)
	if err != nil {
		var data interface{}
		if resp != nil {
			data = resp
		}
		WriteFailure(w, err, data)
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

func (h *PaperHandler) validateBody(body []byte) error {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return qerrors.Validation(qerrors.ErrValidationInvalidBody, "request body is not valid JSON").WithCause(err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return qerrors.Validationf(qerrors.ErrValidationInvalidBody, "invalid request: %s", strings.Join(problems, "; "))
}

// DownloadPaper handles GET /api/papers/:id/pdf.
func (h *PaperHandler) DownloadPaper(w http.ResponseWriter, r *http.Request) {
	p, ok := h.store.Get(PathParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "paper_not_found", "Paper not found or no longer available")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(p.PDF)))
	w.WriteHeader(http.StatusOK)
	w.Write(p.PDF)
}

// generate runs the pipeline and stores the PDF. After a render failure
// the response is returned alongside the error so the text is not lost.
func (h *PaperHandler) generate(r *http.Request, sel paper.Selection) (*PaperResponse, error) {
	requestID := r.FormValue("request_id")
	if requestID == "" {
		requestID = r.Header.Get(requestIDHeader)
	}
	ctx := crew.WithProgress(r.Context(), h.progress(requestID))

	out, err := h.runner.Run(ctx, sel)
	if out == nil {
		if err == nil {
			err = qerrors.Internal(qerrors.ErrInternalError, "pipeline returned no outcome")
		}
		h.log.WithError(err).Warn("paper request failed", map[string]interface{}{
			"subject": sel.Subject, "grade": sel.Grade, "board": sel.Board,
		})
		return nil, err
	}

	resp := h.describe(out)
	if err != nil {
		return resp, err
	}
	stored := h.store.Put(out.Filename(), out.PDF)
	resp.ID = stored.ID
	resp.DownloadURL = "/api/papers/" + stored.ID + "/pdf"
	return resp, nil
}

func (h *PaperHandler) describe(out *pipeline.Outcome) *PaperResponse {
	req := out.Request
	return &PaperResponse{
		Subject:     string(req.Subject),
		Grade:       int(req.Grade),
		Board:       req.Board,
		Direction:   req.Direction.String(),
		Language:    req.Language,
		Filename:    out.Filename(),
		Text:        out.Text,
		PreviewHTML: string(preview(h.md, out.Text)),
		Pages:       len(out.Pages),
		Tasks:       tasksOf(out),
	}
}

func tasksOf(out *pipeline.Outcome) []crew.TaskOutput {
	if out.Generation == nil {
		return nil
	}
	return out.Generation.Tasks
}

func (h *PaperHandler) progress(requestID string) crew.ProgressFunc {
	if h.hub == nil {
		return nil
	}
	return func(e crew.Event) {
		msg := fmt.Sprintf("[%d/%d] %s: %s", e.Index, e.Total, e.Agent, e.Task)
		switch e.Kind {
		case crew.TaskFinished:
			msg += " done"
		case crew.TaskFailed:
			msg += " failed"
		}
		if err := h.hub.BroadcastProgress(ProgressData{RequestID: requestID, Message: msg, Event: e}); err != nil {
			h.log.Debug("progress broadcast failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// -----------------------------------------------------------------------------
// HTML Handlers
// -----------------------------------------------------------------------------

type indexPage struct {
	Options  OptionsResponse
	Selected paper.Selection
	Error    *APIError
}

type resultPage struct {
	Paper   *PaperResponse
	Preview template.HTML
	RTL     bool
	Error   *APIError
}

// Index handles GET /.
func (h *PaperHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.page(w, http.StatusOK, "index.html", indexPage{
		Options:  h.options(),
		Selected: paper.Selection{Subject: string(paper.EnglishA), Grade: "5", Board: board.Federal},
	})
}

// SubmitForm handles POST /papers from the HTML form.
func (h *PaperHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.page(w, http.StatusBadRequest, "index.html", indexPage{
			Options: h.options(),
			Error:   &APIError{Code: qerrors.ErrValidationInvalidBody, Message: "Could not read the form"},
		})
		return
	}
	sel := paper.Selection{
		Subject: r.PostForm.Get("subject"),
		Grade:   r.PostForm.Get("grade"),
		Board:   r.PostForm.Get("board"),
	}

	resp, err := h.generate(r, sel)
	if resp == nil {
		h.page(w, StatusFor(err), "index.html", indexPage{
			Options:  h.options(),
			Selected: sel,
			Error:    toAPIError(err),
		})
		return
	}

	page := resultPage{
		Paper:   resp,
		Preview: template.HTML(resp.PreviewHTML),
		RTL:     resp.Direction == paper.RightToLeft.String(),
	}
	status := http.StatusOK
	if err != nil {
		page.Error = toAPIError(err)
		status = StatusFor(err)
	}
	h.page(w, status, "result.html", page)
}

func (h *PaperHandler) page(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.log.WithError(err).Error("page render failed", map[string]interface{}{"template": name})
	}
}
