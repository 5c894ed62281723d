package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"wechat_md_publisher/generator"
)

const generateTimeout = 60 * time.Second

var errNoAgent = errors.New("drafting disabled: no llm configured")

type sessionCreateReq struct {
	Topic       string   `json:"topic"`
	Outline     []string `json:"outline"`
	Tone        string   `json:"tone"`
	Audience    string   `json:"audience"`
	Words       int      `json:"words"`
	Constraints []string `json:"constraints"`
}

func (r sessionCreateReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Topic, validation.Required),
		validation.Field(&r.Words, validation.Min(0)),
	)
}

type sessionResp struct {
	SessionID string           `json:"session_id"`
	Draft     generator.Draft  `json:"draft"`
	History   []generator.Turn `json:"history"`
}

type reviseReq struct {
	Comment string `json:"comment"`
}

func (r reviseReq) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Comment, validation.Required))
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if s.genAgent == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAgent)
		return
	}
	var req sessionCreateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	brief := generator.Brief{
		Topic:       req.Topic,
		Outline:     req.Outline,
		Tone:        req.Tone,
		Audience:    req.Audience,
		Words:       req.Words,
		Constraints: req.Constraints,
	}
	id := uuid.NewString()
	sess := generator.NewSession(id, brief, s.genAgent)
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	if _, err := sess.Propose(ctx); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.store.set(id, sess)
	writeJSON(w, http.StatusCreated, snapshot(sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, snapshot(sess))
}

func (s *Server) handleSessionRevise(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	var req reviseReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	if _, err := sess.Revise(ctx, req.Comment); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(sess))
}

func snapshot(sess *generator.Session) sessionResp {
	draft, turns := sess.Snapshot()
	return sessionResp{SessionID: sess.ID, Draft: draft, History: turns}
}
