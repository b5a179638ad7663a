package session

import (
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/devilmonastery/cvforge/internal/auth"
)

const (
	// SessionName is the cookie holding login flow state and flashes
	SessionName = "cvforge_session"

	// DataName is the server-side session holding tokens and tool state
	DataName = "cvforge_data"

	stateKey    = "oauth_state"
	verifierKey = "oauth_verifier"
	returnToKey = "return_to"

	maxAge = 30 * 24 * 60 * 60 // 30 days

	// maxDataLength bounds an encoded server-side session
	maxDataLength = 2 << 20
)

var (
	// ErrNoToken is returned when no token is found in the session
	ErrNoToken = auth.ErrNoToken

	// ErrInvalidToken is returned when the stored ID token cannot be parsed
	ErrInvalidToken = auth.ErrInvalidToken

	// ErrTokenExpired is returned when the stored ID token has expired
	ErrTokenExpired = auth.ErrTokenExpired
)

// FlashKind classifies a flash message for styling
type FlashKind string

const (
	FlashInfo  FlashKind = "info"
	FlashError FlashKind = "error"
)

// Flash is a one-shot message shown on the next page render
type Flash struct {
	Kind    FlashKind
	Message string
}

func init() {
	gob.Register(Flash{})
}

// Options configures the session stores
type Options struct {
	// Secure marks cookies HTTPS-only
	Secure bool

	// Dir holds server-side session files; empty means os.TempDir()
	Dir string
}

// Manager wraps gorilla/sessions for our use case
type Manager struct {
	cookies *sessions.CookieStore
	data    *sessions.FilesystemStore
}

// NewManager creates a new session manager.
// Hash and encryption keys are derived from secret, which should be at least 32 bytes.
func NewManager(secret []byte, opts Options) *Manager {
	hashKey, blockKey := deriveKeys(secret)

	cookieOpts := sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	cookies := sessions.NewCookieStore(hashKey, blockKey)
	o := cookieOpts
	cookies.Options = &o

	data := sessions.NewFilesystemStore(opts.Dir, hashKey, blockKey)
	d := cookieOpts
	data.Options = &d
	data.MaxLength(maxDataLength)

	return &Manager{
		cookies: cookies,
		data:    data,
	}
}

func deriveKeys(secret []byte) (hashKey, blockKey []byte) {
	h := sha256.Sum256(append([]byte("cvforge-hash:"), secret...))
	b := sha256.Sum256(append([]byte("cvforge-block:"), secret...))
	return h[:], b[:]
}

// flow returns the cookie session. gorilla/sessions hands back a fresh session
// alongside the error when the cookie cannot be decoded, e.g. after a secret rotation.
func (m *Manager) flow(r *http.Request) *sessions.Session {
	s, _ := m.cookies.Get(r, SessionName)
	if s == nil {
		s = newSession(m.cookies, m.cookies.Options, SessionName)
	}
	return s
}

// store returns the server-side session
func (m *Manager) store(r *http.Request) *sessions.Session {
	s, _ := m.data.Get(r, DataName)
	if s == nil {
		s = newSession(m.data, m.data.Options, DataName)
	}
	return s
}

func newSession(store sessions.Store, opts *sessions.Options, name string) *sessions.Session {
	s := sessions.NewSession(store, name)
	o := *opts
	s.Options = &o
	s.IsNew = true
	return s
}

// BeginLogin remembers the OAuth state, PKCE verifier and post-login target
func (m *Manager) BeginLogin(r *http.Request, w http.ResponseWriter, state, verifier, returnTo string) error {
	s := m.flow(r)
	s.Values[stateKey] = state
	s.Values[verifierKey] = verifier
	s.Values[returnToKey] = returnTo
	return s.Save(r, w)
}

// LoginFlow is the state saved by BeginLogin
type LoginFlow struct {
	State    string
	Verifier string
	ReturnTo string
}

// TakeLogin returns and forgets the state saved by BeginLogin.
// The flow can only be completed once.
func (m *Manager) TakeLogin(r *http.Request, w http.ResponseWriter) (LoginFlow, error) {
	s := m.flow(r)
	flow := LoginFlow{
		State:    stringValue(s, stateKey),
		Verifier: stringValue(s, verifierKey),
		ReturnTo: stringValue(s, returnToKey),
	}
	delete(s.Values, stateKey)
	delete(s.Values, verifierKey)
	delete(s.Values, returnToKey)
	return flow, s.Save(r, w)
}

// AddFlash queues a message for the next page render
func (m *Manager) AddFlash(r *http.Request, w http.ResponseWriter, kind FlashKind, message string) error {
	s := m.flow(r)
	s.AddFlash(Flash{Kind: kind, Message: message})
	return s.Save(r, w)
}

// Flashes returns and clears the queued messages
func (m *Manager) Flashes(r *http.Request, w http.ResponseWriter) []Flash {
	s := m.flow(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// Clear removes both sessions (logout)
func (m *Manager) Clear(r *http.Request, w http.ResponseWriter) error {
	var errs []error
	for _, s := range []*sessions.Session{m.flow(r), m.store(r)} {
		if s.IsNew {
			continue
		}
		for k := range s.Values {
			delete(s.Values, k)
		}
		s.Options.MaxAge = -1
		errs = append(errs, s.Save(r, w))
	}
	return errors.Join(errs...)
}

func stringValue(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}
