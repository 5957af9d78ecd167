package main

import (
	"errors"

	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/serviceerr"

	"github.com/danielgtaylor/huma/v2"
)

// apiError maps service errors to HTTP errors: unknown records and coverages
// are 404, failures of the PDOK services are 502 and anything else is a 500.
func (app *App) apiError(op string, err error, attrs ...any) error {
	var (
		notFound    *serviceerr.LookupNotFoundError
		unknown     *serviceerr.UnknownCoverageError
		network     *serviceerr.NetworkError
		status      *serviceerr.UnexpectedStatusError
		contentType *serviceerr.UnexpectedContentTypeError
		missing     *serviceerr.MissingCoverageError
	)

	switch {
	case errors.As(err, &notFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &unknown):
		return huma.Error404NotFound("unknown coverage " + unknown.CoverageID)
	case errors.Is(err, geocoding.ErrEmptyQuery):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &network), errors.As(err, &status), errors.As(err, &contentType), errors.As(err, &missing):
		app.logger.Error("upstream request failed", append([]any{"operation", op, "error", err}, attrs...)...)
		return huma.Error502BadGateway("failed to " + op + ": upstream service error")
	default:
		app.logger.Error("request failed", append([]any{"operation", op, "error", err}, attrs...)...)
		return huma.Error500InternalServerError("failed to " + op)
	}
}
