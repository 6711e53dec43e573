// Package accesskey implements the shared-secret check run before every
// mutation. There is one secret per deployment, shared by every caller.
package accesskey

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

// Header carries the caller supplied key on mutating API requests.
const Header = "X-Access-Key"

// DenialRecorder is told about every rejected key.
type DenialRecorder interface {
	AccessKeyDenied()
}

type Gate struct {
	secret     [sha256.Size]byte
	configured bool

	log      logger.Logger
	recorder DenialRecorder
	warnOnce sync.Once
}

// New builds a gate around secret. An empty secret is legal and denies
// every call. rec may be nil.
func New(secret string, log logger.Logger, rec DenialRecorder) *Gate {
	g := &Gate{
		configured: secret != "",
		log:        log,
		recorder:   rec,
	}
	if g.configured {
		g.secret = sha256.Sum256([]byte(secret))
	}
	return g
}

// Configured reports whether a secret was provided at startup.
func (g *Gate) Configured() bool { return g.configured }

// Check returns nil when key equals the secret, domain.ErrInvalidAccessKey
// otherwise. Neither key nor secret is ever logged.
func (g *Gate) Check(key string) error {
	if !g.configured {
		g.warnOnce.Do(func() {
			if g.log != nil {
				g.log.Warn("⚠️ access key is not configured, every mutation will be rejected")
			}
		})
		g.deny()
		return domain.ErrInvalidAccessKey
	}

	// Hashing first keeps the comparison length independent of the input.
	given := sha256.Sum256([]byte(key))
	if subtle.ConstantTimeCompare(given[:], g.secret[:]) != 1 {
		g.deny()
		return domain.ErrInvalidAccessKey
	}
	return nil
}

func (g *Gate) deny() {
	if g.recorder != nil {
		g.recorder.AccessKeyDenied()
	}
}
