package input

import (
	"fmt"
	"sync"

	"github.com/stwalsh4118/projectmap/internal/models"
)

// MultiSelect is a checkbox list with a derived "select all" state.
// Checking every option, or none, means no restriction on that dimension.
type MultiSelect struct {
	mu          sync.Mutex
	placeholder string
	plural      string
	options     []models.LookupOption
	checked     map[string]bool
	disabled    bool
	onChange    func(ids []string)
}

func newMultiSelect(placeholder, plural string, onChange func(ids []string)) *MultiSelect {
	return &MultiSelect{
		placeholder: placeholder,
		plural:      plural,
		checked:     map[string]bool{},
		disabled:    true,
		onChange:    onChange,
	}
}

// load replaces the options. Options listed in ids start checked; an empty
// ids checks everything. It does not fire onChange.
func (m *MultiSelect) load(options []models.LookupOption, ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = options
	m.disabled = len(options) == 0
	m.checked = make(map[string]bool, len(options))

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, o := range options {
		m.checked[o.Key()] = len(ids) == 0 || want[o.Key()]
	}
}

// disable clears the options after a failed lookup.
func (m *MultiSelect) disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = nil
	m.checked = map[string]bool{}
	m.disabled = true
}

// Options returns the options in display order.
func (m *MultiSelect) Options() []models.LookupOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LookupOption(nil), m.options...)
}

// Disabled reports whether the control has no options to offer.
func (m *MultiSelect) Disabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

// Checked reports whether option id is checked.
func (m *MultiSelect) Checked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checked[id]
}

// AllChecked is the "select all" checkbox. It is derived from the
// individual options and never stored.
func (m *MultiSelect) AllChecked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allChecked()
}

func (m *MultiSelect) allChecked() bool {
	if len(m.options) == 0 {
		return false
	}
	for _, o := range m.options {
		if !m.checked[o.Key()] {
			return false
		}
	}
	return true
}

// Toggle checks or unchecks one option and applies the new selection.
func (m *MultiSelect) Toggle(id string, on bool) error {
	m.mu.Lock()
	if _, ok := m.checked[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownOption, id)
	}
	m.checked[id] = on
	ids := m.selection()
	m.mu.Unlock()

	m.onChange(ids)
	return nil
}

// SetAll checks or unchecks every option. Either way the filter is cleared
// rather than listing every id.
func (m *MultiSelect) SetAll(on bool) {
	m.mu.Lock()
	for _, o := range m.options {
		m.checked[o.Key()] = on
	}
	m.mu.Unlock()

	m.onChange(nil)
}

// Selection returns the ids sent to the filter store.
func (m *MultiSelect) Selection() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection()
}

// selection lists checked ids in option order, or nil when all are
// checked. Caller holds mu.
func (m *MultiSelect) selection() []string {
	if m.allChecked() {
		return nil
	}
	var ids []string
	for _, o := range m.options {
		if m.checked[o.Key()] {
			ids = append(ids, o.Key())
		}
	}
	return ids
}

// Label is the collapsed display text of the control.
func (m *MultiSelect) Label() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, o := range m.options {
		if m.checked[o.Key()] {
			names = append(names, o.Label())
		}
	}
	switch len(names) {
	case 0:
		return m.placeholder
	case 1:
		return names[0]
	default:
		return fmt.Sprintf("%d %s selected", len(names), m.plural)
	}
}
