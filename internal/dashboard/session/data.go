package session

import (
	"encoding/json"
	"time"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
)

// Cookie carries the client-visible cookie parameters embedded in the
// session payload. An explicit expiry here overrides the store's
// configured TTL.
type Cookie struct {
	Expires *time.Time `json:"expires,omitempty"`
}

// Data is the application session payload. It round-trips through JSON
// when persisted; the store never looks inside the serialized form.
type Data struct {
	Cookie Cookie `json:"cookie"`

	// ReturnTo remembers the originally requested URL so a successful
	// login can redirect back to it.
	ReturnTo string `json:"returnTo,omitempty"`

	// User is the authenticated identity attached by the external
	// identity integration, if any.
	User *domain.Identity `json:"user,omitempty"`
}

func encodeData(d *Data) ([]byte, error) {
	return json.Marshal(d)
}

func decodeData(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
