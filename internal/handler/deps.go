package handler

import (
	"ichats/internal/app/attachment"
	"ichats/internal/app/group"
	"ichats/internal/app/message"
	"ichats/internal/app/presence"
	"ichats/internal/app/push"
	"ichats/internal/app/user"
	"ichats/internal/configs"
)

// AppDeps bundles every collaborator the HTTP handlers need. Stores and the
// deliverer are interfaces so handlers can be tested against in-memory fakes.
type AppDeps struct {
	Config   *configs.AppConfig
	Users    user.Store
	Messages message.Store
	Groups   group.Store
	Blobs    attachment.BlobStore
	Ingestor *attachment.Ingestor
	Presence presence.Registry
	Relay    push.Deliverer
}
