// Package mcp serves spaces over the Model Context Protocol, so AI
// assistants can search indexed pages and ask questions about them.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrAskUnavailable is returned by the ask tool when no answer provider is configured.
	ErrAskUnavailable = errors.New("mcp: ask is unavailable, no answer provider configured")
)
