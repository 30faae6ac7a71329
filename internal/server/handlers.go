package server

import (
	"net/http"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

type suggestRequest struct {
	domain.RawInput
	DesiredProfit domain.RawValue `json:"desiredProfit"`
}

type saveRequest struct {
	domain.RawInput
	Note string `json:"note"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
	Email    string `json:"email"`
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type platform struct {
	Name    string  `json:"name"`
	Fee     float64 `json:"fee"`
	Default bool    `json:"default"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var raw domain.RawInput
	if err := decodeJSON(r, &raw); err != nil {
		writeBadRequest(w, err)
		return
	}
	out, err := s.svc.Calculate(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	sug, err := s.svc.Suggest(r.Context(), req.RawInput, string(req.DesiredProfit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.History(r.Context()))
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	n, err := s.svc.Save(r.Context(), req.RawInput, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"count": n})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, ok := s.svc.LoadSettings(r.Context())
	if !ok {
		fee, _ := s.svc.Preset(domain.DefaultPlatform)
		settings = domain.Settings{PlatformFee: fee, Platform: domain.DefaultPlatform}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.svc.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	fb, err := s.svc.SubmitFeedback(r.Context(), req.Feedback, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	sub, err := s.svc.Subscribe(r.Context(), req.Email, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handlePlatforms(w http.ResponseWriter, _ *http.Request) {
	presets := s.svc.Platforms()
	out := make([]platform, 0, len(presets))
	for _, name := range domain.PlatformNames(presets) {
		out = append(out, platform{Name: name, Fee: presets[name], Default: name == domain.DefaultPlatform})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CheckVersion(r.Context()))
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Status())
}
