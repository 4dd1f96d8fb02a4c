package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is a best-effort trace of an auth-related event. UserID may be
// zero when the actor is unknown (e.g. reset request for a missing email).
type AuditEntry struct {
	UserID    int64
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, e AuditEntry) error {
	md, _ := json.Marshal(e.Metadata)
	var uid *int64
	if e.UserID != 0 {
		uid = &e.UserID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uid, e.Email, e.Action, e.IP, e.UserAgent, md)
	return err
}
