package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxBodyBytes = 10 << 20

// Empty is the result of commands that return nothing. It encodes as null.
type Empty = *struct{}

// command adapts a typed command func to an http.Handler. The request body is
// the argument bag; an empty body decodes as the zero value. Arguments that
// implement validation.Validatable are validated before fn runs.
func command[In any, Out any](name string, fn func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(CodeBadRequest, "failed to read body"))
			return
		}

		var in In
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &in); err != nil {
				slog.DebugContext(ctx, "decode arguments failed", slog.String("command", name), slog.String("error", err.Error()))
				writeJSON(w, http.StatusBadRequest, errorBody(CodeBadRequest, "invalid JSON body"))
				return
			}
		}
		if v, ok := any(&in).(validation.Validatable); ok {
			if err := v.Validate(); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody(CodeBadRequest, err.Error()))
				return
			}
		}

		out, err := fn(ctx, in)
		if err != nil {
			writeError(w, r, name, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
