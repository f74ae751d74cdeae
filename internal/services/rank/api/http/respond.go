package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
)

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("http response encode failed: err=%v", err)
	}
}

// writeError renders a domain error with its mapped status. Errors outside
// the domain type are reported as opaque internal failures so backend details
// never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		writeJSON(w, domainErr.Code.HTTPStatus(), errorEnvelope{Error: errorBody{
			Code:     string(domainErr.Code),
			Message:  domainErr.Message,
			Metadata: domainErr.Metadata,
		}})
		return
	}
	log.Printf("http internal error: err=%v", err)
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    string(apperrors.CodeUnknown),
		Message: "internal error",
	}})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
