// Package modkit provides module wiring and core deps
package modkit

import (
	"plaza/internal/platform/cache"
	"plaza/internal/platform/config"
	"plaza/internal/platform/logger"
	"plaza/internal/platform/pds"

	"github.com/bluesky-social/indigo/atproto/identity"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Cache cache.Cache
	PDS   *pds.Factory
	Dir   identity.Directory
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional fields
func (d Deps) ZeroOK() bool { return true }
