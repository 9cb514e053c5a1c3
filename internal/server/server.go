// Package server exposes the HTTP surface of the service: the voice catalog,
// a credential health probe, the generation endpoint, and the static browser
// UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/pocket-tts-web/internal/core"
)

// Version is reported by the health endpoint.
const Version = "1.1.0"

// API endpoints and paths.
const (
	apiVoices   = "/api/voices"
	apiHealth   = "/api/health"
	apiGenerate = "/api/generate"
)

// HTTP headers and content types.
const (
	headerContentType  = "Content-Type"
	contentTypeJSON    = "application/json"
	contentTypeWAV     = "audio/wav"
	contentTypeFormMul = "multipart/form-data"
)

// Form and JSON field names.
const (
	fieldText  = "text"
	fieldVoice = "voice"
	fieldFile  = "file"
)

// maxUploadBytes bounds the in-memory portion of a multipart clone-sample
// upload.
const maxUploadBytes = 32 << 20

// Error codes carried in error responses for machine-readable handling.
const (
	codeInvalidInput    = "invalid_input"
	codeInvalidVoice    = "invalid_voice_request"
	codeVoiceNotFound   = "voice_not_found"
	codeVoiceLoadFailed = "voice_load_failed"
	codeModelInitFailed = "model_init_failed"
	codeGenerationError = "generation_failed"
)

// Generator runs one text-to-speech request.
type Generator interface {
	Generate(ctx context.Context, text string, req core.VoiceRequest) ([]byte, error)
}

// AuthInfo is the read-only credential diagnostic surface for the health
// endpoint. It never exposes the full secret.
type AuthInfo interface {
	AuthStatus() string
	Preview() string
	EnvFileFound() bool
}

// Server holds the handler dependencies.
type Server struct {
	generator    Generator
	auth         AuthInfo
	voices       []core.Voice
	defaultVoice string
	staticDir    string
	log          *logger.Logger
}

// New wires the HTTP surface. voices is served verbatim and in order by the
// catalog endpoint; defaultVoice fills in when a request omits one.
func New(
	generator Generator,
	auth AuthInfo,
	voices []core.Voice,
	defaultVoice, staticDir string,
	log *logger.Logger,
) *Server {
	return &Server{
		generator:    generator,
		auth:         auth,
		voices:       voices,
		defaultVoice: defaultVoice,
		staticDir:    staticDir,
		log:          log,
	}
}

// Handler builds the route table. The static UI is mounted last so it cannot
// mask the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(apiVoices, s.handleVoices)
	mux.HandleFunc(apiHealth, s.handleHealth)
	mux.HandleFunc(apiGenerate, s.handleGenerate)

	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}

	return mux
}

type voicesResponse struct {
	Voices []core.Voice `json:"voices"`
}

// handleVoices serves the fixed catalog. It must not touch the model, so a
// cold service can still enumerate voices instantly.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")

		return
	}

	s.writeJSON(w, http.StatusOK, voicesResponse{Voices: s.voices})
}

type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	AuthStatus   string `json:"auth_status"`
	TokenPreview string `json:"token_preview"`
	EnvFileFound bool   `json:"env_file_found"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")

		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Version:      Version,
		AuthStatus:   s.auth.AuthStatus(),
		TokenPreview: s.auth.Preview(),
		EnvFileFound: s.auth.EnvFileFound(),
	})
}

type generateRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// handleGenerate accepts JSON or multipart form bodies. An uploaded sample
// takes priority over the voice identifier.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")

		return
	}

	text, voiceReq, parseErr := s.parseGenerateRequest(r)
	if parseErr != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidInput, parseErr.Error())

		return
	}

	audioData, genErr := s.generator.Generate(r.Context(), text, voiceReq)
	if genErr != nil {
		status, code := categorize(genErr)
		s.writeError(w, status, code, genErr.Error())

		return
	}

	w.Header().Set(headerContentType, contentTypeWAV)
	w.WriteHeader(http.StatusOK)

	_, writeErr := w.Write(audioData)
	if writeErr != nil {
		s.log.Warn("Failed to write audio response: %v", writeErr)
	}
}

// parseGenerateRequest extracts text and the voice request from either body
// encoding.
func (s *Server) parseGenerateRequest(r *http.Request) (string, core.VoiceRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(headerContentType))
	if strings.HasPrefix(mediaType, contentTypeFormMul) {
		return s.parseMultipart(r)
	}

	var req generateRequest

	decodeErr := json.NewDecoder(r.Body).Decode(&req)
	if decodeErr != nil {
		return "", core.VoiceRequest{}, fmt.Errorf("invalid request body: %w", decodeErr)
	}

	return req.Text, s.voiceRequestFor(req.Voice, nil), nil
}

func (s *Server) parseMultipart(r *http.Request) (string, core.VoiceRequest, error) {
	parseErr := r.ParseMultipartForm(maxUploadBytes)
	if parseErr != nil {
		return "", core.VoiceRequest{}, fmt.Errorf("invalid multipart body: %w", parseErr)
	}

	text := r.FormValue(fieldText)
	voiceID := r.FormValue(fieldVoice)

	file, header, fileErr := r.FormFile(fieldFile)
	if fileErr != nil {
		if errors.Is(fileErr, http.ErrMissingFile) {
			return text, s.voiceRequestFor(voiceID, nil), nil
		}

		return "", core.VoiceRequest{}, fmt.Errorf("invalid file upload: %w", fileErr)
	}

	sample := &core.SampleRef{
		Filename: header.Filename,
		Data:     file,
	}

	return text, s.voiceRequestFor(voiceID, sample), nil
}

// voiceRequestFor applies the upload-over-preset priority and the default
// voice.
func (s *Server) voiceRequestFor(voiceID string, sample *core.SampleRef) core.VoiceRequest {
	if sample != nil {
		return core.VoiceRequest{PresetID: "", Sample: sample}
	}

	if voiceID == "" {
		voiceID = s.defaultVoice
	}

	return core.VoiceRequest{PresetID: voiceID, Sample: nil}
}

// categorize maps a pipeline failure onto the HTTP status and error code the
// client sees. Internal error types never leak; only the category and the
// human-readable message do.
func categorize(failure error) (int, string) {
	switch {
	case errors.Is(failure, core.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(failure, core.ErrInvalidVoiceRequest):
		return http.StatusBadRequest, codeInvalidVoice
	case errors.Is(failure, core.ErrVoiceNotFound):
		return http.StatusBadRequest, codeVoiceNotFound
	case errors.Is(failure, core.ErrVoiceLoadFailed):
		return http.StatusBadRequest, codeVoiceLoadFailed
	case errors.Is(failure, core.ErrModelInitFailed):
		return http.StatusInternalServerError, codeModelInitFailed
	default:
		return http.StatusInternalServerError, codeGenerationError
	}
}

type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail, ErrorCode: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	encodeErr := json.NewEncoder(w).Encode(payload)
	if encodeErr != nil {
		s.log.Warn("Failed to encode JSON response: %v", encodeErr)
	}
}
