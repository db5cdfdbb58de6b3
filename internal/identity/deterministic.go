package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by domain so different entities never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// TitleToken returns n lowercase hex digits identifying title. The same
// title always yields the same token. n is clamped to [1, 32].
func TitleToken(title string, n int) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}
	// No normalization: "???" and "!!!" must hash differently.
	id, err := hashid.NewUUID("mdpages:title:"+trimmed, hashid.WithHashAlgorithm(hashid.SHA256))
	if err != nil || id == uuid.Nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("mdpages:title:"+trimmed))
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	if n < 1 {
		n = 1
	}
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}

// AdminUUID is the identifier given to the bootstrap admin user.
func AdminUUID(email string) uuid.UUID {
	return UUID("mdpages:admin:" + strings.ToLower(strings.TrimSpace(email)))
}
