package httpapi

import (
	"net/http"
	"strconv"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/domain/rank"
)

const (
	defaultDiffN       = 10
	defaultDiffEpsilon = 0.001
)

type rankAddRequest struct {
	Username string  `json:"username"`
	Delta    float64 `json:"delta"`
	Reason   string  `json:"reason"`
}

type rankAddResponse struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

func (s *Server) handleRankAdd(w http.ResponseWriter, r *http.Request) {
	var req rankAddRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeRequestInvalid, "invalid request body", err))
		return
	}

	score, err := s.rank.AddScore(r.Context(), req.Username, req.Delta, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankAddResponse{Username: req.Username, Score: score})
}

func (s *Server) handleRankTop10(w http.ResponseWriter, r *http.Request) {
	entries, err := s.rank.TopN(r.Context(), 10)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []rank.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRankDiff(w http.ResponseWriter, r *http.Request) {
	n := defaultDiffN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeRequestInvalid, "invalid n parameter", err))
			return
		}
		n = parsed
	}
	epsilon := defaultDiffEpsilon
	if raw := r.URL.Query().Get("epsilon"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeRequestInvalid, "invalid epsilon parameter", err))
			return
		}
		epsilon = parsed
	}

	drifts, err := s.rank.DiffTopN(r.Context(), n, epsilon)
	if err != nil {
		writeError(w, err)
		return
	}
	if drifts == nil {
		drifts = []rank.Drift{}
	}
	writeJSON(w, http.StatusOK, drifts)
}
