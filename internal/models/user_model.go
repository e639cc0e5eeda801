package models

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BackendToken is the stored bearer token for the scheduling backend,
// encrypted at rest. Read fresh on every outgoing request so multi-tab
// login/logout is tolerated.
type BackendToken struct {
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	UpdatedAt time.Time `db:"updated_at"`
}
