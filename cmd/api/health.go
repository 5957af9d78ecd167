package main

import (
	"context"

	"github.com/arbakker/pdok-services/internal/version"
)

// PingOutput represents the response for the ping endpoint
type PingOutput struct {
	Body struct {
		Message string `json:"message" example:"pong" doc:"Response message"`
		Version string `json:"version" example:"v1.0.0" doc:"Build version"`
	}
}

// handlePing is a health check endpoint that returns a simple pong message
func (app *App) handlePing(ctx context.Context, input *struct{}) (*PingOutput, error) {
	resp := &PingOutput{}
	resp.Body.Message = "pong"
	resp.Body.Version = version.VERSION
	return resp, nil
}
