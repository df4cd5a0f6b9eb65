package session

import "sync"

// Registry maps conversation identities to sessions, creating them on first
// contact. Sessions live for the process lifetime; nothing is evicted, which
// is fine for the small number of chats one bot account sees.
type Registry struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	historySize   int
	defaultPrompt string
}

func NewRegistry(historySize int, defaultPrompt string) *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		historySize:   historySize,
		defaultPrompt: defaultPrompt,
	}
}

// Resolve returns the session for identity, creating it if this is the first
// contact. The second return reports whether a new session was created.
func (r *Registry) Resolve(identity string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[identity]; ok {
		return s, false
	}
	s := newSession(r.historySize, r.defaultPrompt)
	r.sessions[identity] = s
	return s, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
