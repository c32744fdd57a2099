package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"declang/pkg/auth"
	"declang/pkg/eval"
	"declang/pkg/langerr"
)

type runRequest struct {
	Code string `json:"code"`
}

type runResponse struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

// showWriter calls emit once per Write. The evaluator writes each show
// statement in a single call, so a shown string containing newlines stays one
// entry.
type showWriter struct {
	emit func(text string) error
}

func (w *showWriter) Write(p []byte) (int, error) {
	if err := w.emit(strings.TrimSuffix(string(p), "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Server) evalOptions() []eval.Option {
	if s.cfg.LegacyGuard {
		return []eval.Option{eval.WithLegacyGuard()}
	}
	return nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	// leave room for the JSON envelope around the script
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxScriptBytes+1024)

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "script too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if int64(len(req.Code)) > s.cfg.MaxScriptBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "script too large"})
		return
	}

	resp := runResponse{Output: []string{}}
	out := &showWriter{emit: func(text string) error {
		resp.Output = append(resp.Output, text)
		return nil
	}}

	if err := eval.Run(req.Code, out, s.evalOptions()...); err != nil {
		resp.Error = err.Error()
		resp.Kind = langerr.KindOf(err).String()
		s.report(r, req.Code, err, resp.Kind)
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.AuthUser)) == 1
	passOK := auth.VerifyPassword(s.cfg.AuthPasswordHash, req.Password)
	if !userOK || !passOK {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	tok, err := auth.SignToken(req.Username, s.cfg.AuthSecret, s.cfg.TokenTTL)
	if err != nil {
		s.logger.Printf("sign token: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresIn: int64(s.cfg.TokenTTL.Seconds())})
}
