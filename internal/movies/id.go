package movies

import (
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NewID returns the identifier assigned to records created by this service.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates a client-supplied id and returns its canonical form.
// Accepted ids are UUIDs and the 24-character hex ObjectIDs carried by
// documents written by the first release.
func ParseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), nil
	}
	if oid, err := bson.ObjectIDFromHex(raw); err == nil {
		return oid.Hex(), nil
	}
	return "", ErrInvalidID
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
