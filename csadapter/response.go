package csadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/procsys/appcore/app"
)

type healthResponse struct {
	Status           string `json:"status"`
	Modules          int    `json:"modules"`
	DeviceFunctional bool   `json:"device_functional"`
}

type variableResponse struct {
	Path     string    `json:"path"`
	Type     string    `json:"type"`
	Writable bool      `json:"writable"`
	Value    any       `json:"value"`
	Version  string    `json:"version"`
	Time     time.Time `json:"time"`
}

type writeRequest struct {
	Value any `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newVariableResponse(info app.VariableInfo) variableResponse {
	return variableResponse{
		Path:     info.Path,
		Type:     info.Type,
		Writable: info.Writable,
		Value:    info.Value,
		Version:  info.Version.String(),
		Time:     info.Time,
	}
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{Error: err.Error()}
}

func statusForWriteError(err error) int {
	switch {
	case errors.Is(err, app.ErrUnknownVariable):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotWritable):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
