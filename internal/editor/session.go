package editor

import "github.com/aelfread/wordhoard/internal/store"

// Session bundles the per-sitting editing state: a command manager for
// undo history and a recall of the last annotation entered for each
// part of speech, which interactive annotation uses to pre-fill
// fields. Sessions are independent; callers wanting shared history
// share the one Session.
type Session struct {
	Editor   *Editor
	Commands *Manager

	recall map[string]store.Annotation
}

// NewSession returns a fresh session over ed.
func NewSession(ed *Editor) *Session {
	return &Session{
		Editor:   ed,
		Commands: NewManager(),
		recall:   make(map[string]store.Annotation),
	}
}

// Remember records ann as the most recent annotation for its part of
// speech. Annotations without a part of speech are not recalled.
func (s *Session) Remember(ann *store.Annotation) {
	if ann == nil || ann.POS == "" {
		return
	}
	s.recall[ann.POS] = *ann
}

// Recall returns a copy of the last annotation entered for pos, with
// the token id cleared so it can seed a new token's annotation.
func (s *Session) Recall(pos string) (store.Annotation, bool) {
	ann, ok := s.recall[pos]
	if !ok {
		return store.Annotation{}, false
	}
	ann.TokenID = 0
	return ann, true
}
