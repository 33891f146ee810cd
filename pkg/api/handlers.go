package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/tabula/pkg/arraystore"
	"github.com/ssargent/tabula/pkg/catalog"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/table"
)

// Server holds the API server state
type Server struct {
	tables  TableStore
	config  ServerConfig
	metrics *Metrics
	logger  *logging.Logger
}

// NewServer creates a new API server
func NewServer(tables TableStore, config ServerConfig, metrics *Metrics, logger *logging.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Server{
		tables:  tables,
		config:  config,
		metrics: metrics,
		logger:  logging.OrNoop(logger).WithComponent("api"),
	}
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListTables lists all indexed tables
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tables.List()
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	summaries := make([]TableSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, summarize(e))
	}
	sendSuccess(w, summaries)
}

// handleGetTable returns a table's catalog entry
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	entry, err := s.tables.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}
	sendSuccess(w, entry)
}

// handleRows returns a page of rows
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		sendError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultRowLimit)
	if err != nil || limit < 1 || limit > maxRowLimit {
		sendError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
		return
	}

	tbl, ok := s.openTable(w, r)
	if !ok {
		return
	}
	defer tbl.Close()

	rows, err := tbl.Rows(offset, limit)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.metrics.RecordRows(len(rows))

	sendSuccess(w, RowsResponse{
		Offset:  offset,
		Limit:   limit,
		Total:   tbl.RecordSize(),
		Columns: tbl.Entry().Fields,
		Rows:    rows,
	})
}

// handleRow returns one row
func (s *Server) handleRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.ParseInt(chi.URLParam(r, "row"), 10, 64)
	if err != nil {
		sendError(w, "row must be an integer", http.StatusBadRequest)
		return
	}

	tbl, ok := s.openTable(w, r)
	if !ok {
		return
	}
	defer tbl.Close()

	values, err := tbl.Record(row)
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}
	s.metrics.RecordRows(1)

	sendSuccess(w, RowResponse{Row: row, Values: values})
}

// handleSearch finds rows whose column contains the query text
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	query := r.URL.Query().Get("q")
	if column == "" || query == "" {
		sendError(w, "column and q are required", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultRowLimit)
	if err != nil || limit < 1 || limit > maxRowLimit {
		sendError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
		return
	}

	tbl, ok := s.openTable(w, r)
	if !ok {
		return
	}
	defer tbl.Close()

	start := time.Now()
	hits, err := tbl.Find(r.Context(), column, query)
	s.metrics.RecordSearch(err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, r, err)
		return
	}

	rows := make([]int64, 0, min(int64(hits.GetCardinality()), limit))
	it := hits.Iterator()
	for it.HasNext() && int64(len(rows)) < limit {
		rows = append(rows, int64(it.Next()))
	}

	sendSuccess(w, SearchResponse{
		Column:  column,
		Query:   query,
		Matches: hits.GetCardinality(),
		Rows:    rows,
	})
}

func (s *Server) openTable(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	tbl, err := s.tables.Open(chi.URLParam(r, "id"))
	s.metrics.RecordTableOpen(err == nil)
	if err != nil {
		s.sendFailure(w, r, err)
		return nil, false
	}
	return tbl, true
}

// sendFailure maps domain errors onto HTTP status codes
func (s *Server) sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, arraystore.ErrIndexOutOfBounds):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, table.ErrUnknownColumn):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, table.ErrStale):
		sendError(w, err.Error(), http.StatusConflict)
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
		)
		sendError(w, "internal error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name string, def int64) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
