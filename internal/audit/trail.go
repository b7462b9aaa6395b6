package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"estatehub.app/internal/auth"
	"estatehub.app/internal/ids"
	"estatehub.app/internal/obs"
)

// Entry is one user action against a domain entity.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}

// Recorder accepts activity entries. Record never fails the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Trail logs every entry and, with a database, persists it to activity_logs.
type Trail struct {
	db *sql.DB
}

var _ Recorder = (*Trail)(nil)

// NewTrail returns a Trail. db may be nil for log-only operation.
func NewTrail(db *sql.DB) *Trail { return &Trail{db: db} }

func (t *Trail) Record(ctx context.Context, e Entry) {
	fields := map[string]any{"entity_type": e.EntityType}
	if e.EntityID != "" {
		fields["entity_id"] = e.EntityID
	}
	for k, v := range e.Details {
		fields[k] = v
	}
	if err := LogEvent(ctx, e.Action, fields); err != nil {
		obs.Error("audit_log_failed", err, map[string]any{"action": e.Action})
		return
	}
	if t == nil || t.db == nil {
		return
	}
	if err := t.persist(ctx, e); err != nil {
		obs.Error("audit_persist_failed", err, map[string]any{"action": e.Action, "entity_type": e.EntityType})
	}
}

func (t *Trail) persist(ctx context.Context, e Entry) error {
	var userID sql.NullString
	if claims, ok := auth.ClaimsFromContext(ctx); ok {
		userID = sql.NullString{String: claims.Subject, Valid: true}
	}
	var details any
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = string(raw)
	}
	c := clientFromContext(ctx)
	_, err := t.db.ExecContext(ctx, `
		insert into activity_logs(id, user_id, action, entity_type, entity_id, ip_address, user_agent, details)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ids.New(), userID, e.Action, e.EntityType, nullable(e.EntityID), nullable(c.ip), nullable(c.userAgent), details)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
