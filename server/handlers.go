package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"wechat_md_publisher/history"
	"wechat_md_publisher/publisher"
)

var errNotJSON = errors.New("content type must be application/json")

// decodeJSON reads a JSON request body. Other content types are refused so a
// cross-site form post cannot reach the handlers without a CORS preflight.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, errNotJSON)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

type publishReq struct {
	Markdown string `json:"markdown"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Digest   string `json:"digest"`
	Source   string `json:"source"`
}

func (r publishReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Markdown, validation.Required),
		validation.Field(&r.Title, validation.RuneLength(0, 64)),
	)
}

func (r publishReq) input() publisher.Input {
	return publisher.Input{
		Markdown:     r.Markdown,
		DefaultTitle: r.Title,
		Author:       r.Author,
		Digest:       r.Digest,
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := s.pub.Publish(r.Context(), req.input())
	s.record(r.Context(), res, req.Source, req.Markdown)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pub.Status(r.Context()))
}

type previewReq struct {
	Markdown string `json:"markdown"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewReq
	if !decodeJSON(w, r, &req) {
		return
	}
	preview, err := s.pub.Preview(req.Markdown)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

const defaultHistoryLimit = 20

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history disabled"))
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// historyDetail is one entry with its Markdown, for restoring a draft.
type historyDetail struct {
	history.Entry
	Markdown string `json:"markdown"`
}

// handleHistoryEntry serves /api/history/{id}; the id "last" names the newest
// entry.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history disabled"))
		return
	}

	var (
		entry history.Entry
		err   error
	)
	if idParam := r.PathValue("id"); idParam == "last" {
		entry, err = s.history.Last(r.Context())
	} else {
		id, parseErr := uuid.Parse(idParam)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid history id"))
			return
		}
		entry, err = s.history.Get(r.Context(), id)
	}
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, historyDetail{Entry: entry, Markdown: entry.Markdown})
}
