package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/stfkit/pkg/logging"
	"github.com/ssargent/stfkit/pkg/stf"
	"github.com/ssargent/stfkit/pkg/storage"
	"go.uber.org/zap"
)

// Server holds the API server state
type Server struct {
	backend storage.Backend
	config  ServerConfig
	metrics *Metrics
	codec   *stf.Codec
	logger  *zap.Logger
}

// NewServer creates a new API server. backend may be nil, in which case
// the backup routes answer 503.
func NewServer(backend storage.Backend, config ServerConfig, metrics *Metrics, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		backend: backend,
		config:  config,
		metrics: metrics,
		codec:   stf.NewCodec(stf.WithLogger(logger)),
		logger:  logger,
	}
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleDecode decodes an STF body into its JSON view
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	table, err := s.codec.Decode(data)
	s.metrics.RecordCodecOperation("decode", err == nil, len(data), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	sendSuccess(w, stf.ToView(table))
}

// handleEncode encodes a JSON table view into STF bytes
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var view stf.TableView
	if err := json.Unmarshal(data, &view); err != nil {
		sendError(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	table, err := view.Table()
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	out, err := s.codec.Encode(table)
	s.metrics.RecordCodecOperation("encode", err == nil, len(out), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	sendSTF(w, out, "")
}

// handleInspect returns the layout report for an STF body
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	report, err := stf.Inspect(data)
	s.metrics.RecordCodecOperation("inspect", err == nil, len(data), time.Since(start))
	if err != nil {
		s.sendCodecError(w, err)
		return
	}

	sendSuccess(w, report)
}

// handleCreateBackup stores an STF body after checking that it decodes
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.codec.Decode(data)
	s.metrics.RecordCodecOperation("decode", err == nil, len(data), time.Since(start))
	if err != nil {
		s.metrics.RecordBackupOperation("create", false)
		s.sendCodecError(w, err)
		return
	}

	id, err := s.backend.Put(r.Context(), data)
	s.metrics.RecordBackupOperation("create", err == nil)
	if err != nil {
		s.logger.Error("store backup", zap.Error(err))
		sendError(w, "Failed to store backup", http.StatusInternalServerError)
		return
	}

	s.logger.Info("backup created", zap.Stringer("id", id), zap.Int("bytes", len(data)))
	sendCreated(w, BackupInfo{ID: id.String(), CreatedAt: id.Time().UTC(), Size: len(data)})
}

// handleListBackups lists stored backups in id order
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}

	ids, err := s.backend.List(r.Context())
	s.metrics.RecordBackupOperation("list", err == nil)
	if err != nil {
		s.logger.Error("list backups", zap.Error(err))
		sendError(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	backups := make([]BackupInfo, 0, len(ids))
	for _, id := range ids {
		backups = append(backups, BackupInfo{ID: id.String(), CreatedAt: id.Time().UTC()})
	}

	sendSuccess(w, map[string]interface{}{
		"backups": backups,
		"count":   len(backups),
	})
}

// handleGetBackup returns the raw STF bytes of a backup
func (s *Server) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.backend.Get(r.Context(), id)
	s.metrics.RecordBackupOperation("get", err == nil)
	if err != nil {
		s.sendBackendError(w, "get", err)
		return
	}

	sendSTF(w, data, id.String()+".stf")
}

// handleDeleteBackup removes a backup
func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.backend.Delete(r.Context(), id)
	s.metrics.RecordBackupOperation("delete", err == nil)
	if err != nil {
		s.sendBackendError(w, "delete", err)
		return
	}

	sendSuccess(w, map[string]string{"status": "deleted", "id": id.String()})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (s *Server) requireBackend(w http.ResponseWriter) bool {
	if s.backend == nil {
		sendError(w, "Backup storage is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) sendCodecError(w http.ResponseWriter, err error) {
	var formatErr *stf.FormatError
	switch {
	case errors.As(err, &formatErr):
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, stf.ErrTooLarge), errors.Is(err, stf.ErrNilTable):
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("codec failure", zap.Error(err))
		sendError(w, "Internal codec error", http.StatusInternalServerError)
	}
}

func (s *Server) sendBackendError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Error("backup "+op, zap.Error(err))
	sendError(w, fmt.Sprintf("Failed to %s backup", op), http.StatusInternalServerError)
}
