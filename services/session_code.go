package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// cartNamespace scopes the name-based UUIDs used as cart session ids.
var cartNamespace = uuid.MustParse("5b0c3f7e-8a51-4d6e-9f3a-2c7d1e4b9a60")

// NewSessionCode returns an opaque code made of the table id, the current
// time in nanoseconds and a random component, so concurrent starts on the
// same table never collide.
func NewSessionCode(tableID string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", codeSafe(tableID), strconv.FormatInt(now.UnixNano(), 36), random)
}

// DeriveSessionID maps (table number, session code) to the cart scope id.
// Both parts are required; the table number alone never identifies a cart.
func DeriveSessionID(tableNumber, sessionCode string) string {
	return uuid.NewSHA1(cartNamespace, []byte(tableNumber+"|"+sessionCode)).String()
}

func codeSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "tbl"
	}
	return b.String()
}
