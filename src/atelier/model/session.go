// Package model holds the records kept by the repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
)

// Session is a live server session stored by the session repository.
type Session struct {
	UUID      uuid.UUID
	Spec      entity.ConnectionSpec
	Transport *transport.Session
	Client    atelier.Client
	CreatedAt time.Time
}
