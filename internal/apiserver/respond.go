package apiserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tap-ir/tapir/internal/apierror"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("apiserver.encode_response_failed", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apierror.BadInputf("decode request body: %v", err)
	}
	return nil
}

// writeError translates err into an HTTP response per spec.md §7. BadInput
// becomes 400 with a plain message; everything else (including an
// unwrapped error) is treated as Fatal and becomes 500. TaskFailure is
// handled inline at the call site, not here, since it is a 200 response
// carrying {"error": ...}.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apierror.BadInput {
		http.Error(w, apiErr.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
