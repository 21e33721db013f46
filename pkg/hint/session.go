package hint

import (
	"unicode/utf8"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// State is the hint state of one text field.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateSelecting
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateSelecting:
		return "selecting"
	case StateCommitted:
		return "committed"
	default:
		return "idle"
	}
}

// TriggerChar arms the hint list.
const TriggerChar = '{'

// Session tracks hint selection for a single text field.
// It is not safe for concurrent use.
type Session struct {
	all           []domain.SmartHint
	acceptFormats []string
	upstreamTypes []domain.UpstreamType
	componentID   string
	order         map[string]int

	state       State
	value       string
	cursor      int
	trigger     int // rune index right after the trigger character
	highlighted int
}

// NewSession creates an idle session for a field of componentID.
func NewSession(all []domain.SmartHint, acceptFormats []string, upstreamTypes []domain.UpstreamType, componentID string, order map[string]int) *Session {
	return &Session{
		all:           all,
		acceptFormats: acceptFormats,
		upstreamTypes: upstreamTypes,
		componentID:   componentID,
		order:         order,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Value returns the field value as last seen or committed.
func (s *Session) Value() string { return s.value }

// Cursor returns the cursor position in runes.
func (s *Session) Cursor() int { return s.cursor }

// Highlighted returns the index of the highlighted candidate.
func (s *Session) Highlighted() int { return s.highlighted }

// Input records a field change. Typing the trigger character arms the session.
func (s *Session) Input(value string, cursor int) {
	s.value = value
	s.cursor = cursor

	runes := []rune(value)
	if cursor > 0 && cursor <= len(runes) && runes[cursor-1] == TriggerChar {
		s.state = StateArmed
		s.trigger = cursor
		s.highlighted = 0
		return
	}
	if s.state == StateCommitted || (s.active() && cursor < s.trigger) {
		s.reset()
	}
}

// MoveCursor records a cursor move without a value change.
// Leaving the hint span cancels the session.
func (s *Session) MoveCursor(cursor int) {
	s.cursor = cursor
	if !s.active() {
		return
	}
	if cursor < s.trigger || cursor > utf8.RuneCountInString(s.value) {
		s.reset()
	}
}

// Candidates returns the filtered hints for the current state.
// An idle session offers nothing.
func (s *Session) Candidates() []domain.SmartHint {
	if !s.active() {
		return nil
	}
	cursor, trigger := s.cursor, s.trigger
	return Filter(s.all, s.acceptFormats, &cursor, &trigger, s.value, s.componentID, s.order)
}

// Next moves the highlight down, wrapping around.
func (s *Session) Next() { s.move(1) }

// Prev moves the highlight up, wrapping around.
func (s *Session) Prev() { s.move(-1) }

func (s *Session) move(delta int) {
	if !s.active() {
		return
	}
	n := len(s.Candidates())
	if n == 0 {
		return
	}
	s.state = StateSelecting
	s.highlighted = ((s.highlighted+delta)%n + n) % n
}

// Commit inserts the highlighted hint at the trigger position and returns the new value and cursor.
// It reports false, leaving the field untouched, when nothing can be committed.
func (s *Session) Commit() (string, int, bool) {
	if !s.active() {
		return s.value, s.cursor, false
	}
	candidates := s.Candidates()
	if len(candidates) == 0 || s.highlighted >= len(candidates) {
		return s.value, s.cursor, false
	}
	hint := candidates[s.highlighted]

	runes := []rune(s.value)
	start := s.trigger - 1
	for start > 0 && runes[start-1] == TriggerChar {
		start--
	}
	end := s.cursor
	if end > len(runes) {
		end = len(runes)
	}
	// swallow closing braces already present
	j := end
	for j < len(runes) && runes[j] == ' ' {
		j++
	}
	if j < len(runes) && runes[j] == '}' {
		for j < len(runes) && runes[j] == '}' {
			j++
		}
		end = j
	}

	whole := start == 0 && end == len(runes)
	expr := s.expression(hint.Path, whole)

	value := string(runes[:start]) + expr + string(runes[end:])
	cursor := start + utf8.RuneCountInString(expr)

	s.value = value
	s.cursor = cursor
	s.state = StateCommitted
	s.highlighted = 0
	return value, cursor, true
}

// expression picks the reference form when the field accepts it and the hint fills the whole value.
func (s *Session) expression(path string, whole bool) string {
	reference, template := s.accepts(domain.UpstreamReference), s.accepts(domain.UpstreamTemplate)
	if reference && (whole || !template) {
		return "{ " + path + " }"
	}
	return "{{ " + path + " }}"
}

func (s *Session) accepts(t domain.UpstreamType) bool {
	if len(s.upstreamTypes) == 0 {
		return true
	}
	for _, u := range s.upstreamTypes {
		if u == t {
			return true
		}
	}
	return false
}

// Escape cancels the session without touching the field.
func (s *Session) Escape() { s.reset() }

// Blur cancels the session when the field loses focus.
func (s *Session) Blur() { s.reset() }

func (s *Session) active() bool {
	return s.state == StateArmed || s.state == StateSelecting
}

func (s *Session) reset() {
	s.state = StateIdle
	s.trigger = 0
	s.highlighted = 0
}
