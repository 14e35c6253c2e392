package share

import (
	"fmt"
	"net/url"
	"strings"
)

// SharedPath is the page that reads a token from its fragment.
const SharedPath = "/shared"

// ShareURL builds origin + "/shared#" + token.
func ShareURL(origin, token string) string {
	return strings.TrimRight(origin, "/") + SharedPath + "#" + token
}

// TokenFromURL extracts the token from a share link. A bare token is
// returned unchanged.
func TokenFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "#") {
		if raw == "" {
			return "", fmt.Errorf("%w: empty link", ErrInvalidToken)
		}
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if u.Fragment == "" {
		return "", fmt.Errorf("%w: link has no fragment", ErrInvalidToken)
	}
	return u.Fragment, nil
}
