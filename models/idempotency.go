package models

import "time"

// IdempotencyKey stores the first successful response for a given request hash.
// Company-scoped: the same key from two tenants never collides on the hash.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex:idx_idempotency_keys_company_key,priority:2"` // header value
	RequestHash    string     `json:"request_hash" gorm:"size:64"`                                                 // sha256 of method|path|body|company|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	CompanyId      string     `json:"company_id" gorm:"size:64;uniqueIndex:idx_idempotency_keys_company_key,priority:1"`
	UserID         string     `json:"user_id" gorm:"size:128"`
	ResponseStatus int        `json:"response_status"`     // 0 => not completed yet
	ResponseBody   []byte     `json:"-" gorm:"type:bytea"` // raw response body (JSON)
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
