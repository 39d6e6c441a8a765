package identity

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/store"
	"github.com/mahmodz/points-rank-server/internal/utils"
)

const sessionKeyPrefix = "session:"

// credential is the document stored in the `credentials` collection,
// keyed by uid. Only the bcrypt hash is persisted.
type credential struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LocalProvider implements Provider against the record store. Session
// tokens are HS256 JWTs whose SHA-256 hash is held in Redis with a TTL so
// they can be revoked; when Redis is unavailable the provider falls back
// to an in-process session table and the service keeps working.
type LocalProvider struct {
	store  store.Store
	rdb    *redis.Client // nil -> in-memory sessions
	secret string
	ttl    time.Duration
	cost   int

	mu       sync.Mutex
	sessions map[string]time.Time // token hash -> expiry (fallback only)
}

// NewLocal builds a LocalProvider. rdb may be nil.
func NewLocal(s store.Store, rdb *redis.Client, secret string, ttl time.Duration, bcryptCost int) *LocalProvider {
	return &LocalProvider{
		store:    s,
		rdb:      rdb,
		secret:   secret,
		ttl:      ttl,
		cost:     bcryptCost,
		sessions: make(map[string]time.Time),
	}
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperr.Validation("Email and password are required")
	}
	existing, err := p.store.QueryByField(ctx, store.Credentials, "email", email)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", apperr.Conflict("Email already in use")
	}
	hash, err := utils.HashPassword(password, p.cost)
	if err != nil {
		return "", err
	}
	cred := credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	doc, err := credDoc(cred)
	if err != nil {
		return "", err
	}
	if err := p.store.Set(ctx, store.Credentials, cred.UID, doc); err != nil {
		return "", err
	}
	return cred.UID, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, apperr.Validation("Email and password are required")
	}
	recs, err := p.store.QueryByField(ctx, store.Credentials, "email", email)
	if err != nil {
		return Session{}, err
	}
	if len(recs) == 0 {
		return Session{}, apperr.Auth("Invalid credentials")
	}
	var cred credential
	if err := decodeCred(recs[0].Doc, &cred); err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(cred.PasswordHash, password) {
		return Session{}, apperr.Auth("Invalid credentials")
	}
	tok, err := utils.NewSessionToken(p.secret, cred.UID, cred.Email, p.ttl)
	if err != nil {
		return Session{}, err
	}
	if err := p.storeSession(ctx, utils.HashToken(tok.Token), tok.Exp); err != nil {
		return Session{}, err
	}
	return Session{UID: cred.UID, Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

func (p *LocalProvider) InvalidateSession(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	hash := utils.HashToken(token)
	if p.rdb != nil {
		return p.rdb.Del(ctx, sessionKeyPrefix+hash).Err()
	}
	p.mu.Lock()
	delete(p.sessions, hash)
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) storeSession(ctx context.Context, hash string, exp time.Time) error {
	if p.rdb != nil {
		ttl := time.Until(exp)
		if ttl <= 0 {
			ttl = time.Second
		}
		return p.rdb.Set(ctx, sessionKeyPrefix+hash, "1", ttl).Err()
	}
	p.mu.Lock()
	p.sessions[hash] = exp
	p.mu.Unlock()
	return nil
}

// SessionActive reports whether a token's session is still known. Exposed
// for tests and future token-protected routes.
func (p *LocalProvider) SessionActive(ctx context.Context, token string) bool {
	hash := utils.HashToken(token)
	if p.rdb != nil {
		n, err := p.rdb.Exists(ctx, sessionKeyPrefix+hash).Result()
		return err == nil && n > 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	exp, ok := p.sessions[hash]
	return ok && time.Now().Before(exp)
}

func credDoc(c credential) (store.Doc, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var d store.Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeCred(d store.Doc, c *credential) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, c)
}
