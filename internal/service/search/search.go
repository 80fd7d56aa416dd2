// Package search implements title prefix search and folder filtering for notes.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
)

// MaxSentinel sorts after every valid UTF-8 sequence that starts with the
// same prefix, so [term, term+MaxSentinel) is exactly the titles starting with term.
const MaxSentinel = string(utf8.MaxRune)

// PrefixRange returns the half-open title range matching prefix.
func PrefixRange(prefix string) (lower, upper string) {
	return prefix, prefix + MaxSentinel
}

// Service runs department-scoped title searches.
type Service struct {
	notes  repos.NoteRepository
	logger *slog.Logger
}

func NewService(notes repos.NoteRepository, logger *slog.Logger) *Service {
	return &Service{notes: notes, logger: logger}
}

// Search returns every note in the department whose title starts with term.
// Matching is case-sensitive and unpaginated. An empty term matches nothing
// and does not touch the repository.
func (s *Service) Search(ctx context.Context, departmentID, term string) ([]models.Note, error) {
	if term == "" {
		return []models.Note{}, nil
	}
	if departmentID == "" {
		return nil, &domain.ValidationError{Message: "department is required for search"}
	}

	lower, upper := PrefixRange(term)
	notes, err := s.notes.SearchByTitleRange(ctx, departmentID, lower, upper)
	if err != nil {
		s.logger.Error("note search failed", "department_id", departmentID, "term", term, "error", err)
		return nil, fmt.Errorf("search notes: %w", err)
	}

	s.logger.Debug("note search", "department_id", departmentID, "term", term, "results", len(notes))
	return notes, nil
}

// FilterNotes keeps the notes filed directly under folderID, or the notes at
// the subject root when folderID is nil. The input is not modified.
func FilterNotes(notes []models.Note, folderID *string) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n.InFolder(folderID) {
			out = append(out, n)
		}
	}
	return out
}
