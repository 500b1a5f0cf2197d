package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"solendir/internal/model"
	"solendir/internal/relay"
)

const (
	livenessMessage = "Solendir backend is running!"
	noTokenMessage  = "No Notion token set."
	maxBodyBytes    = 1 << 20
)

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type tokenRequest struct {
	Token *string `json:"token"`
}

type pagesResponse struct {
	Raw json.RawMessage `json:"raw"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": livenessMessage})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Message == nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "field required: message")
		return
	}

	creds, err := s.credentials(r)
	if err != nil {
		s.jsonResponse(w, http.StatusOK, chatResponse{Response: "Error: " + err.Error()})
		return
	}

	answer, err := s.relay.Chat(r.Context(), creds, *req.Message)
	if err != nil {
		s.logger.Warn("chat relay failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err))
		s.jsonResponse(w, http.StatusOK, chatResponse{Response: "Error: " + err.Error()})
		return
	}
	s.logger.Debug("chat relayed",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.Bool("augmented", answer.Augmented),
		zap.Strings("terms", answer.Terms))
	s.jsonResponse(w, http.StatusOK, chatResponse{Response: answer.Text})
}

func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Token == nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "field required: token")
		return
	}
	if err := s.tokens.Set(r.Context(), model.ProviderNotion, *req.Token); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to store token: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearToken(w http.ResponseWriter, r *http.Request) {
	if err := s.tokens.Delete(r.Context(), model.ProviderNotion); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to clear token: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	creds, err := s.credentials(r)
	if err != nil {
		s.jsonResponse(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	raw, err := s.relay.Browse(r.Context(), creds, strings.TrimSpace(r.URL.Query().Get("cursor")))
	switch {
	case relay.IsNoToken(err):
		s.jsonResponse(w, http.StatusOK, map[string]string{"error": noTokenMessage})
	case err != nil:
		s.logger.Warn("workspace browse failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err))
		s.jsonResponse(w, http.StatusOK, map[string]string{"error": err.Error()})
	default:
		s.jsonResponse(w, http.StatusOK, pagesResponse{Raw: raw})
	}
}

// credentials resolves the workspace token for this request: the override
// header first, then the stored token. A blank stored token counts as unset.
func (s *Server) credentials(r *http.Request) (relay.Credentials, error) {
	if token := strings.TrimSpace(r.Header.Get(NotionTokenHeader)); token != "" {
		return relay.Credentials{NotionToken: token}, nil
	}
	token, _, err := s.tokens.Get(r.Context(), model.ProviderNotion)
	if err != nil {
		return relay.Credentials{}, fmt.Errorf("read stored token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		token = ""
	}
	return relay.Credentials{NotionToken: token}, nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.logger.Info("request rejected", zap.Int("status", status), zap.String("error", message))
	s.jsonResponse(w, status, map[string]string{"error": message})
}
