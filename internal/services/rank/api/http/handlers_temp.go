package httpapi

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
)

type tempPutRequest struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

type tempGetResponse struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

func (s *Server) handleTempPut(w http.ResponseWriter, r *http.Request) {
	var req tempPutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeRequestInvalid, "invalid request body", err))
		return
	}
	if req.Key == "" {
		writeError(w, apperrors.New(apperrors.CodeTempKeyEmpty, "temp key is empty"))
		return
	}
	if req.TTLSeconds <= 0 {
		writeError(w, apperrors.New(apperrors.CodeTempTTLInvalid, "ttlSeconds must be positive"))
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := s.kv.Set(r.Context(), s.tempPrefix+req.Key, req.Value, ttl); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTempGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, apperrors.New(apperrors.CodeTempKeyEmpty, "temp key is empty"))
		return
	}

	value, err := s.kv.Get(r.Context(), s.tempPrefix+key)
	if err != nil {
		// An absent or expired entry is a normal read outcome, not a failure.
		if errors.Is(err, cache.ErrMiss) {
			writeJSON(w, http.StatusOK, tempGetResponse{Key: key})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tempGetResponse{Key: key, Value: &value})
}

func (s *Server) handleTempDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, apperrors.New(apperrors.CodeTempKeyEmpty, "temp key is empty"))
		return
	}
	if err := s.kv.Delete(r.Context(), s.tempPrefix+key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
