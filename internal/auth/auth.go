// Package auth holds the respondent's credentials and the survey session
// id for the lifetime of one program run.
package auth

import "sync"

// Profile identifies the enrolled respondent.
type Profile struct {
	Name string
}

// Provider is the in-memory credential holder. The session id is
// write-once: the first backend-issued id sticks for the whole run.
type Provider struct {
	mu        sync.Mutex
	token     string
	profile   *Profile
	sessionID string
}

// New creates a Provider. An empty token means unauthenticated; a nil
// profile means not enrolled.
func New(token string, profile *Profile) *Provider {
	return &Provider{token: token, profile: profile}
}

// Token returns the bearer token, reporting whether one is held.
func (p *Provider) Token() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, p.token != ""
}

// HasProfile reports whether a respondent profile is held.
func (p *Provider) HasProfile() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile != nil
}

// Profile returns the respondent profile, reporting whether one is held.
func (p *Provider) Profile() (Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return Profile{}, false
	}
	return *p.profile, true
}

// ActiveSessionID returns the adopted survey session id, reporting
// whether one is held.
func (p *Provider) ActiveSessionID() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID, p.sessionID != ""
}

// AdoptSessionID stores id. Once a session id is held, later calls are
// ignored.
func (p *Provider) AdoptSessionID(id string) {
	if id == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionID != "" {
		return
	}
	p.sessionID = id
}
