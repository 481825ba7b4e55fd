package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// LogInteraction stores a raw command invocation for auditing and returns its id.
func (db *DB) LogInteraction(ctx context.Context, memberID, command string, payload any) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	_, err = db.q.Exec(ctx,
		`INSERT INTO interaction_logs (id, member_id, command, payload) VALUES ($1, $2, $3, $4)`,
		id, memberID, command, data,
	)
	return id, err
}
