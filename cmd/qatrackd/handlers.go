package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veridoc/qatrack/closure"
	"github.com/veridoc/qatrack/idgen"
	"github.com/veridoc/qatrack/qap"
	"github.com/veridoc/qatrack/report"
	"github.com/veridoc/qatrack/store"
)

type server struct {
	st       *store.Store
	qap      *qap.Engine
	compiler *report.Compiler
	closure  *closure.Orchestrator
	cfg      *Config
	logger   *slog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Post("/api/users", s.createUser)

	r.Route("/api/projects", func(r chi.Router) {
		r.Post("/", s.createProject)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.getProject)
			r.Get("/documents", s.listDocuments)
			r.Post("/documents", s.uploadDocument)
			r.Get("/serials", s.listSerials)
			r.Post("/report", s.generateReport)
			r.Post("/closure/request", s.requestClosure)
			r.Post("/closure/approve", s.approveClosure)
			r.Post("/closure/reopen", s.reopenProject)
		})
	})

	r.Patch("/api/serials/{serialID}", s.updateSerial)

	r.Route("/api/knowledge-bank", func(r chi.Router) {
		r.Get("/", s.listKnowledgeItems)
		r.Post("/", s.uploadKnowledgeItem)
	})

	// Stored artifacts are served directly; paths recorded on documents and
	// knowledge bank items resolve against this prefix.
	uploadsRoot := filepath.Join(s.cfg.DataDir, "uploads")
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsRoot))))

	return r
}

// --- Users ---

func (s *server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.Name == "" {
		writeError(w, 400, errors.New("name is required"))
		return
	}
	id, err := s.st.InsertUser(r.Context(), &store.User{
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, map[string]int64{"id": id})
}

// --- Projects ---

type projectView struct {
	ID                    int64   `json:"id"`
	PONumber              string  `json:"po_number"`
	OPAName               string  `json:"opa_name"`
	QAFieldUnit           string  `json:"qa_field_unit"`
	ProjectClassification string  `json:"project_classification"`
	FirmName              string  `json:"firm_name"`
	PODate                int64   `json:"po_date,omitempty"`
	MainEquipment         string  `json:"main_equipment"`
	OrderValue            float64 `json:"order_value"`
	EngineerID            int64   `json:"engineer_id,omitempty"`
	JCQAOID               int64   `json:"jcqao_id,omitempty"`
	ProgressPercentage    float64 `json:"progress_percentage"`
	IsClosed              bool    `json:"is_closed"`
	IsClosureRequested    bool    `json:"is_closure_requested"`
	IsClosureApproved     bool    `json:"is_closure_approved"`
	ClosureRequestRemarks string  `json:"closure_request_remarks,omitempty"`
	CreatedAt             int64   `json:"created_at"`
}

func viewOf(p *store.Project) projectView {
	return projectView{
		ID:                    p.ID,
		PONumber:              p.PONumber,
		OPAName:               p.OPAName,
		QAFieldUnit:           p.QAFieldUnit,
		ProjectClassification: p.ProjectClassification,
		FirmName:              p.FirmName,
		PODate:                p.PODate,
		MainEquipment:         p.MainEquipment,
		OrderValue:            p.OrderValue,
		EngineerID:            p.EngineerID,
		JCQAOID:               p.JCQAOID,
		ProgressPercentage:    p.ProgressPercentage,
		IsClosed:              p.IsClosed,
		IsClosureRequested:    p.IsClosureRequested,
		IsClosureApproved:     p.IsClosureApproved,
		ClosureRequestRemarks: p.ClosureRequestRemarks,
		CreatedAt:             p.CreatedAt,
	}
}

func (s *server) createProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PONumber              string  `json:"po_number"`
		OPAName               string  `json:"opa_name"`
		QAFieldUnit           string  `json:"qa_field_unit"`
		ProjectClassification string  `json:"project_classification"`
		FirmName              string  `json:"firm_name"`
		PODate                int64   `json:"po_date"`
		MainEquipment         string  `json:"main_equipment"`
		OrderValue            float64 `json:"order_value"`
		EngineerID            int64   `json:"engineer_id"`
		JCQAOID               int64   `json:"jcqao_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.PONumber == "" {
		writeError(w, 400, errors.New("po_number is required"))
		return
	}
	id, err := s.st.InsertProject(r.Context(), &store.Project{
		PONumber:              req.PONumber,
		OPAName:               req.OPAName,
		QAFieldUnit:           req.QAFieldUnit,
		ProjectClassification: req.ProjectClassification,
		FirmName:              req.FirmName,
		PODate:                req.PODate,
		MainEquipment:         req.MainEquipment,
		OrderValue:            req.OrderValue,
		EngineerID:            req.EngineerID,
		JCQAOID:               req.JCQAOID,
		CreatedAt:             time.Now().UnixMilli(),
	})
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, map[string]int64{"id": id})
}

func (s *server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	p, err := s.st.Project(r.Context(), id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, viewOf(p))
}

// --- Documents ---

var uploadTypes = map[string]bool{
	store.DocPO:             true,
	store.DocFCL:            true,
	store.DocFCM:            true,
	store.DocDrawing:        true,
	store.DocQAP:            true,
	store.DocJIR:            true,
	store.DocFormIV:         true,
	store.DocTestReport:     true,
	store.DocFATTrial:       true,
	store.DocInspectionCall: true,
	store.DocOther:          true,
}

func (s *server) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	docs, err := s.st.DocumentsByProject(r.Context(), id)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, docs)
}

// uploadDocument stores one multipart file under the project's upload
// folder. A QAP upload additionally runs checklist ingestion; an ingestion
// failure is reported in the response but never discards the stored file.
func (s *server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	if _, err := s.st.Project(r.Context(), projectID); err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, 400, fmt.Errorf("parse upload: %w", err))
		return
	}

	docType := r.FormValue("type")
	if !uploadTypes[docType] {
		writeError(w, 400, fmt.Errorf("unknown document type %q", docType))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, fmt.Errorf("file field: %w", err))
		return
	}
	defer file.Close()

	dir := filepath.Join(s.cfg.DataDir, "uploads", strconv.FormatInt(projectID, 10))
	stored, err := s.saveUpload(file, header, dir)
	if err != nil {
		writeError(w, 500, err)
		return
	}

	doc := &store.Document{
		ProjectID:    projectID,
		Type:         docType,
		Filename:     stored,
		OriginalName: header.Filename,
		Path:         filepath.ToSlash(filepath.Join("uploads", strconv.FormatInt(projectID, 10), stored)),
		CreatedAt:    time.Now().UnixMilli(),
	}
	docID, err := s.st.InsertDocument(r.Context(), doc)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	doc.ID = docID

	resp := map[string]any{"document": doc}
	if docType == store.DocQAP {
		count, err := s.qap.Ingest(r.Context(), projectID, filepath.Join(dir, stored))
		switch {
		case err != nil:
			s.logger.Warn("qap ingestion failed",
				"project_id", projectID, "filename", header.Filename, "error", err)
			resp["qap_warning"] = "document stored but checklist extraction failed"
		case count == 0:
			resp["qap_warning"] = "document stored but no checklist rows were found"
		default:
			resp["serials_created"] = count
		}
	}
	writeJSON(w, 201, resp)
}

// saveUpload writes the uploaded file into dir under a token-prefixed name
// and returns the stored filename.
func (s *server) saveUpload(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("upload dir: %w", err)
	}
	stored := idgen.NewFileToken() + "_" + report.SanitizeFilename(header.Filename)
	dst, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return stored, nil
}

// --- Serials ---

func (s *server) listSerials(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	serials, err := s.st.Serials(r.Context(), id)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, serials)
}

func (s *server) updateSerial(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "serialID")
	if !ok {
		return
	}
	var req struct {
		Completed bool   `json:"completed"`
		Remarks   string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	pct, err := s.st.SetSerialCompletion(r.Context(), id, req.Completed, req.Remarks)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, map[string]float64{"progress_percentage": pct})
}

// --- Reports & closure ---

type outcomeView struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Pages    int    `json:"pages,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func outcomeViews(outcomes []report.Outcome) []outcomeView {
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, outcomeView{
			Filename: o.Document.OriginalName,
			Type:     o.Document.Type,
			Status:   o.Status,
			Pages:    o.Pages,
			Reason:   o.Reason,
		})
	}
	return views
}

func (s *server) generateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	res, err := s.compiler.Compile(r.Context(), id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"filename":  res.Filename,
		"path":      res.RelativePath,
		"documents": outcomeViews(res.Outcomes),
	})
}

func (s *server) requestClosure(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	var req struct {
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if err := s.closure.Request(r.Context(), id, req.Remarks); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "closure requested"})
}

// approveClosure compiles and records the closure report, answers the
// caller, and only then flips the project into its closed state. The caller
// is told about the report as soon as it durably exists; the closed flag
// following the response means a failure there leaves a reopenable project
// with a valid report rather than the reverse.
func (s *server) approveClosure(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	var req struct {
		ApprovedBy int64 `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}

	res, err := s.closure.Finalize(r.Context(), id, req.ApprovedBy)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"status":    "closed",
		"filename":  res.Filename,
		"path":      res.RelativePath,
		"documents": outcomeViews(res.Outcomes),
	})

	if err := s.closure.Archive(context.WithoutCancel(r.Context()), id); err != nil {
		s.logger.Error("archive after approval failed", "project_id", id, "error", err)
	}
}

func (s *server) reopenProject(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(w, r, "projectID")
	if !ok {
		return
	}
	if err := s.closure.Reopen(r.Context(), id); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "reopened"})
}

// --- Knowledge bank ---

func (s *server) listKnowledgeItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.st.KnowledgeItems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, items)
}

func (s *server) uploadKnowledgeItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, 400, fmt.Errorf("parse upload: %w", err))
		return
	}

	category := r.FormValue("category")
	title := r.FormValue("title")
	if category == "" || title == "" {
		writeError(w, 400, errors.New("category and title are required"))
		return
	}
	uploadedBy, _ := strconv.ParseInt(r.FormValue("uploaded_by"), 10, 64)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, fmt.Errorf("file field: %w", err))
		return
	}
	defer file.Close()

	dir := filepath.Join(s.cfg.DataDir, "uploads", "knowledge")
	stored, err := s.saveUpload(file, header, dir)
	if err != nil {
		writeError(w, 500, err)
		return
	}

	item := &store.KnowledgeBankItem{
		Category:     category,
		Title:        title,
		Filename:     stored,
		OriginalName: header.Filename,
		Path:         filepath.ToSlash(filepath.Join("uploads", "knowledge", stored)),
		UploadedBy:   uploadedBy,
		CreatedAt:    time.Now().UnixMilli(),
	}
	itemID, err := s.st.InsertKnowledgeItem(r.Context(), item)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	item.ID = itemID
	writeJSON(w, 201, item)
}

// requestID tags every request with a UUIDv7, echoed to the caller and
// attached to the access log line so log entries across the pipelines can
// be correlated.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := idgen.New()
		w.Header().Set("X-Request-Id", id)
		s.logger.Info("request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func paramID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, 400, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func statusOf(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return 404
	}
	return 500
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
