package security

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gamexhub/gamex-panel/internal/domain"
)

const accountIDRandomLen = 15

// NewAccountID returns the role prefix followed by 15 hex characters of a
// random UUID with its dashes removed.
func NewAccountID(role domain.Role) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return role.IDPrefix() + hex[:accountIDRandomLen]
}
