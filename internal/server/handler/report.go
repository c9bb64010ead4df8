package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// ReportHandler serves archived settlement reports back out of object
// storage. Nil when archival is disabled; the routes are then not mounted.
type ReportHandler struct {
	blobs  domain.BlobReader
	logger *slog.Logger
}

// NewReportHandler creates a ReportHandler with the given blob reader and
// logger.
func NewReportHandler(blobs domain.BlobReader, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		blobs:  blobs,
		logger: logger,
	}
}

// reportInfo describes one archived report object.
type reportInfo struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ListReports lists archived settlement reports, optionally narrowed to a
// month prefix.
// GET /api/reports?month=2026-08
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	prefix := "reports/settlements/"
	if month := r.URL.Query().Get("month"); month != "" {
		prefix += month + "/"
	}

	infos, err := h.blobs.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list reports failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	out := make([]reportInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, reportInfo{
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// GetReport streams one archived settlement report.
// GET /api/reports/{path...}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r, "path")
	if path == "" || strings.Contains(path, "..") {
		writeError(w, http.StatusBadRequest, "invalid report path")
		return
	}
	// Serve only from the settlement archive prefix.
	if !strings.HasPrefix(path, "reports/") {
		path = "reports/settlements/" + path
	}

	body, err := h.blobs.Get(r.Context(), path)
	if err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, "report not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get report failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get report")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "handler: report stream interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
