package domain

import "time"

// ChatAccount is the persisted provisioning record for a session. The
// in-memory registry is authoritative while the process runs; these rows
// let sessions be re-created automatically after a restart.
type ChatAccount struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Status     string    `json:"status"`
	Jid        string    `json:"jid"` // populated once pairing completes
	LastOnline time.Time `json:"last_online"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ChatAccount) TableName() string {
	return "chat_account"
}
