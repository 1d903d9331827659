package profiles

import "time"

// UsersCollection holds one profile document per account, keyed by the
// account id.
const UsersCollection = "users"

// Record is a JSON-like document stored under (collection, id).
type Record struct {
	Collection string                 `json:"-"`
	ID         string                 `json:"id"`
	OwnerID    string                 `json:"-"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}
