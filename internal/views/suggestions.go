package views

import (
	"sync"

	"github.com/stwalsh4118/projectmap/internal/models"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
)

// MaxSuggestions caps the keyword dropdown.
const MaxSuggestions = 10

// NoResultsMessage is shown when an active keyword matched nothing.
const NoResultsMessage = "No results found"

// SuggestionState is the visibility of the keyword dropdown.
type SuggestionState int

const (
	SuggestionsHidden SuggestionState = iota
	SuggestionsShown
	SuggestionsEmpty
)

// Suggestion is one dropdown entry.
type Suggestion struct {
	ProjectID string
	Title     string
	Subtitle  string
}

// SuggestionView is the keyword dropdown. It opens whenever a result set
// arrives for a non-empty keyword and closes on choice or dismissal.
type SuggestionView struct {
	mu      sync.RWMutex
	focuser Focuser
	state   SuggestionState
	items   []Suggestion
}

// NewSuggestionView creates a hidden dropdown.
func NewSuggestionView(focuser Focuser) *SuggestionView {
	return &SuggestionView{focuser: focuser}
}

// Publish implements reconcile.View.
func (v *SuggestionView) Publish(s reconcile.Snapshot) {
	state := SuggestionsHidden
	var items []Suggestion
	if s.Criteria.EffectiveKeyword() != "" {
		for _, p := range s.Records {
			if len(items) == MaxSuggestions {
				break
			}
			items = append(items, Suggestion{
				ProjectID: p.ID(),
				Title:     p.DisplayName(),
				Subtitle:  models.OrNA(p.PropertyTypeName) + " - " + p.ProvinceName,
			})
		}
		state = SuggestionsShown
		if len(items) == 0 {
			state = SuggestionsEmpty
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	v.items = items
}

// State returns the dropdown state.
func (v *SuggestionView) State() SuggestionState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Items returns the visible suggestions.
func (v *SuggestionView) Items() []Suggestion {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state != SuggestionsShown {
		return nil
	}
	return append([]Suggestion(nil), v.items...)
}

// Choose focuses the chosen record and closes the dropdown. The dropdown
// closes even when the record cannot be placed on the map.
func (v *SuggestionView) Choose(id string) error {
	err := v.focuser.Focus(id)
	v.Dismiss()
	return err
}

// Dismiss closes the dropdown until the next result set.
func (v *SuggestionView) Dismiss() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = SuggestionsHidden
}
