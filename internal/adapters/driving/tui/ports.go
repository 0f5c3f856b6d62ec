// Package tui provides the interactive chat interface for docqa.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Questions answers the user's questions. Required.
	Questions driving.QuestionService

	// Collections feeds the collection picker. Optional.
	Collections driving.CollectionService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Questions == nil {
		return ErrMissingQuestionService
	}
	return nil
}
