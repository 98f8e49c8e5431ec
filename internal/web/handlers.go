package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/importme/internal/core"
	"github.com/JonMunkholm/importme/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

var (
	errNoFile          = errors.New("no file provided")
	errFileTooLarge    = errors.New("file too large")
	errInvalidHeader   = errors.New("invalid header_rows: must be a non-negative integer")
	errInvalidRunID    = errors.New("invalid run id")
	errRunsUnsupported = fmt.Errorf("%w: runs are not stored", core.ErrRunNotFound)
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// ColumnInfo describes one schema column to API clients.
type ColumnInfo struct {
	Name       string `json:"name"`
	Index      int    `json:"index"`
	Required   bool   `json:"required"`
	HasDefault bool   `json:"has_default"`
}

// SchemaInfo describes a registered schema to API clients.
type SchemaInfo struct {
	Key            string       `json:"key"`
	Group          string       `json:"group"`
	Label          string       `json:"label"`
	HeaderRows     int          `json:"header_rows"`
	Columns        []ColumnInfo `json:"columns"`
	UniqueTogether [][]string   `json:"unique_together,omitempty"`
}

func toSchemaInfo(schema core.Schema) SchemaInfo {
	info := SchemaInfo{
		Key:            schema.Key,
		Group:          schema.Group,
		Label:          schema.Label,
		HeaderRows:     schema.Config.HeaderRows,
		Columns:        make([]ColumnInfo, len(schema.Config.Columns)),
		UniqueTogether: schema.Config.UniqueTogether,
	}
	for i, col := range schema.Config.Columns {
		info.Columns[i] = ColumnInfo{
			Name:       col.Name,
			Index:      col.Index,
			Required:   col.Required,
			HasDefault: col.Default != nil,
		}
	}
	return info
}

// handleListSchemas returns every registered schema, ordered by group and key.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	all := core.All()
	out := make([]SchemaInfo, len(all))
	for i, schema := range all {
		out[i] = toSchemaInfo(schema)
	}
	writeJSON(w, out)
}

// handleDownloadTemplate returns a CSV whose header row places every column
// name at its index.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	schema, err := core.Lookup(chi.URLParam(r, "schemaKey"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	width := 0
	for _, col := range schema.Config.Columns {
		width = max(width, col.Index+1)
	}
	header := make([]string, width)
	for _, col := range schema.Config.Columns {
		header[col.Index] = col.Name
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.csv"`, schema.Key))

	csvWriter := csv.NewWriter(w)
	csvWriter.Write(header)
	flushCSV(r, csvWriter)
}

// ParseResponse is the JSON body of a successful parse.
type ParseResponse struct {
	RunID            uuid.UUID       `json:"run_id"`
	Stored           bool            `json:"stored"`
	Schema           string          `json:"schema"`
	FileName         string          `json:"file_name"`
	Summary          core.Summary    `json:"summary"`
	Records          []core.Record   `json:"records"`
	RecordsTruncated bool            `json:"records_truncated,omitempty"`
	Errors           []core.RowError `json:"errors"`
}

// handleParse parses a multipart upload ("file" field) with the schema named
// in the path. Optional form fields header_rows and sheet override the schema.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	schemaKey := chi.URLParam(r, "schemaKey")
	if _, err := core.Lookup(schemaKey); err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Parse.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := core.ParseRequest{
		Schema:   schemaKey,
		FileName: header.Filename,
		Body:     file,
		Size:     header.Size,
		Sheet:    r.FormValue("sheet"),
	}
	if v := r.FormValue("header_rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, errInvalidHeader, http.StatusBadRequest)
			return
		}
		req.HeaderRows = &n
	}

	logger := logging.WithFields(r.Context(), "schema", schemaKey, "file", header.Filename)
	logger.Info("parse requested", "size", header.Size)

	ctx := WithRequestMetadata(r.Context(), r)
	out, err := s.service.ParseUpload(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrTooManyParses) {
			w.Header().Set("Retry-After", "30")
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := ParseResponse{
		RunID:    out.RunID,
		Stored:   s.service.StoresRuns(),
		Schema:   schemaKey,
		FileName: header.Filename,
		Summary:  out.Result.Summary(),
		Records:  out.Result.Records,
		Errors:   out.Result.Errors,
	}
	if limit := s.cfg.Parse.MaxResponseRecords; limit > 0 && len(resp.Records) > limit {
		resp.Records = resp.Records[:limit]
		resp.RecordsTruncated = true
	}

	writeJSON(w, resp)
}

// StatusResponse reports parse capacity.
type StatusResponse struct {
	Parses  core.LimiterStatus `json:"parses"`
	Schemas int                `json:"schemas"`
	Stored  bool               `json:"stored"`
}

// handleStatus returns the current state of the parse limiter. Used for
// monitoring and to check if the service can accept more uploads.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Parses:  s.service.Limiter().Status(),
		Schemas: core.SchemaCount(),
		Stored:  s.service.StoresRuns(),
	})
}

// loadRun resolves the runID path parameter, writing the error response
// itself when the run cannot be returned.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*core.RunRecord, bool) {
	if !s.service.StoresRuns() {
		respondError(w, r, errRunsUnsupported, http.StatusNotFound)
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, errInvalidRunID, http.StatusBadRequest)
		return nil, false
	}

	run, err := s.service.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return run, true
}

// handleGetRun returns a stored run with its row errors.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, run)
}

// handleExportRunErrors exports the row errors of a stored run as CSV, one
// line per column error and one per row-level message.
func (s *Server) handleExportRunErrors(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	timestamp := run.FinishedAt.Format("20060102_150405")
	if run.FinishedAt.IsZero() {
		timestamp = time.Now().UTC().Format("20060102_150405")
	}
	filename := fmt.Sprintf("%s_errors_%s.csv", run.Schema, timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	csvWriter.Write([]string{"row_index", "column", "value", "message", "code"})

	for _, re := range run.Errors {
		row := strconv.Itoa(re.Row)
		if re.Message != "" {
			csvWriter.Write([]string{row, "", "", re.Message, core.MapError(errors.New(re.Message)).Code})
		}
		for _, ce := range re.Columns {
			csvWriter.Write([]string{row, ce.Column, cast.ToString(ce.Value), ce.Message, core.MapColumnError(ce).Code})
		}
	}

	flushCSV(r, csvWriter)
}

// flushCSV flushes a CSV download. Headers are already sent by then, so a
// write failure can only be logged.
func flushCSV(r *http.Request, csvWriter *csv.Writer) {
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logging.FromContext(r.Context()).Warn("write csv failed", "path", r.URL.Path, "error", err)
	}
}
