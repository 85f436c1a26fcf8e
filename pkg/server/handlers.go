package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ralph-hq/ralph/pkg/contract"
	"ralph-hq/ralph/pkg/kernel/anchors"
	"ralph-hq/ralph/pkg/kernel/rules"
)

// parseRequest is the body of the parse endpoints.
type parseRequest struct {
	// Text is the document to parse.
	Text string `json:"text"`
	// Source labels the document in diagnostics.
	Source string `json:"source"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":           "ok",
		"contract_version": s.Document().Version(),
	})
}

func (s *Server) handleContractVersion(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":  doc.Version(),
		"document": doc.Name(),
	})
}

func (s *Server) handleContractLookup(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if section == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing section parameter"})
		return
	}

	content, err := s.Document().Lookup(section)
	if s.collector != nil {
		s.collector.RecordLookup("lookup", err)
	}
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"section": section,
		"content": content,
	})
}

func (s *Server) handleContractSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing q parameter"})
		return
	}
	contextLines := 2
	if raw := r.URL.Query().Get("context"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid context parameter"})
			return
		}
		contextLines = parsed
	}

	matches, err := s.Document().Search(query, contextLines)
	if s.collector != nil {
		s.collector.RecordLookup("search", err)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"matches": matches,
	})
}

func (s *Server) handleParseAnchors(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParseRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	records, err := anchors.Parse(req.Text, s.Document().Lines(), req.Source)
	if s.collector != nil {
		s.collector.RecordParse("anchors", len(records), time.Since(start), err)
	}
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"contract_version": s.Document().Version(),
		"anchors":          records,
	})
}

func (s *Server) handleParseRules(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParseRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	records, err := rules.Parse(req.Text, req.Source)
	if s.collector != nil {
		s.collector.RecordParse("rules", len(records), time.Since(start), err)
	}
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"contract_version": s.Document().Version(),
		"rules":            records,
	})
}

func (s *Server) decodeParseRequest(w http.ResponseWriter, r *http.Request) (*parseRequest, bool) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if req.Source == "" {
		req.Source = "request"
	}
	return &req, true
}

// ReloadFrom re-reads the contract document from path and swaps it in.
// Used as the watcher callback; a broken document keeps the previous one
// serving.
func (s *Server) ReloadFrom(path string) error {
	doc, err := contract.LoadFile(path)
	if err != nil {
		return err
	}
	s.SetDocument(doc)
	return nil
}
