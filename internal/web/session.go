package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kpauljoseph/listingpacket/internal/workflow"
)

const (
	cookieName  = "listingpacket_session"
	sessionIdle = 2 * time.Hour
)

type download struct {
	ID       string
	Label    string
	Filename string
	MIME     string
	Data     []byte
}

// session holds one browser's latest results. mu serializes requests from
// the same browser.
type session struct {
	mu        sync.Mutex
	result    *workflow.Result
	downloads []download
	errMsg    string
	lastSeen  time.Time
}

func (s *session) reset() {
	s.result = nil
	s.downloads = nil
	s.errMsg = ""
}

func (s *session) find(id string) (download, bool) {
	for _, d := range s.downloads {
		if d.ID == id {
			return d, true
		}
	}
	return download{}, false
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session), now: time.Now}
}

// get returns the caller's session, issuing a cookie for new browsers.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if c, err := r.Cookie(cookieName); err == nil {
		if s, ok := st.sessions[c.Value]; ok {
			s.lastSeen = now
			return s
		}
	}

	st.prune(now)

	id := uuid.NewString()
	s := &session{lastSeen: now}
	st.sessions[id] = s
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (st *sessionStore) prune(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > sessionIdle {
			delete(st.sessions, id)
		}
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
