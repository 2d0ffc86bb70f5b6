package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type RoleList []string

// Value stores roles as a JSON array.
func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(r))
}

func (r *RoleList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for RoleList: %T", value)
	}

	return json.Unmarshal(bytes, r)
}

func (r RoleList) Has(role string) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID  `db:"id" json:"userid"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         RoleList   `db:"role" json:"role"`
	LastLogoutAt *time.Time `db:"last_logout_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserPatch lists the profile fields a user may change. Nil means untouched.
type UserPatch struct {
	Name *string
	Role RoleList
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Role == nil
}
