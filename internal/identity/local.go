package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const (
	MinPasswordLength = 6

	// Failed sign-ins allowed per email before throttling kicks in.
	signInBurst    = 5
	signInInterval = time.Minute
)

// LocalProvider keeps email/password accounts in the identities table.
type LocalProvider struct {
	db *sqlx.DB

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalProvider(db *sqlx.DB) *LocalProvider {
	return &LocalProvider{
		db:       db,
		limiters: make(map[string]*rate.Limiter),
	}
}

type identityRow struct {
	UID          string `db:"uid"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Disabled     bool   `db:"disabled"`
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, newError(CodeInvalidEmail, nil)
	}
	if len(password) < MinPasswordLength {
		return nil, newError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newError(CodeUnknown, fmt.Errorf("hash password: %w", err))
	}

	uid := uuid.NewString()
	query := `INSERT INTO identities (uid, email, password_hash, created_at) VALUES ($1, $2, $3, NOW())`
	if _, err := p.db.ExecContext(ctx, query, uid, email, string(hash)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, newError(CodeEmailAlreadyInUse, err)
		}
		return nil, newError(CodeUnknown, fmt.Errorf("insert identity: %w", err))
	}

	return &Identity{UID: uid, Email: email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email = strings.TrimSpace(email)
	key := strings.ToLower(email)

	if !p.limiter(key).Allow() {
		return nil, newError(CodeTooManyRequests, nil)
	}

	var row identityRow
	query := `SELECT uid, email, password_hash, disabled FROM identities WHERE LOWER(email) = LOWER($1)`
	if err := p.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(CodeInvalidCredential, nil)
		}
		return nil, newError(CodeUnknown, fmt.Errorf("load identity: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, newError(CodeInvalidCredential, nil)
	}
	if row.Disabled {
		return nil, newError(CodeUserDisabled, nil)
	}

	p.resetLimiter(key)
	return &Identity{UID: row.UID, Email: row.Email}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, uid string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM identities WHERE uid = $1`, uid); err != nil {
		return newError(CodeUnknown, fmt.Errorf("delete identity: %w", err))
	}
	return nil
}

// limiter returns the attempt limiter for an email. A successful sign-in
// drops it, so only consecutive failures are throttled.
func (p *LocalProvider) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(signInInterval/signInBurst), signInBurst)
		p.limiters[key] = l
	}
	return l
}

func (p *LocalProvider) resetLimiter(key string) {
	p.mu.Lock()
	delete(p.limiters, key)
	p.mu.Unlock()
}
