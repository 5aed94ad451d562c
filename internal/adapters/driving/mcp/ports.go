package mcp

import (
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Retrieval ranks pages and conversations. Required.
	Retrieval driving.RetrievalService

	// Chat answers questions. Optional; the ask tool reports an error without it.
	Chat driving.ChatService

	// Spaces lists spaces and their files. Optional.
	Spaces driving.SpaceService

	// Conversations reads conversation history. Optional.
	Conversations driving.ConversationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
