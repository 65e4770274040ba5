package nats

import "github.com/nats-io/nats.go"

const SubjectOwnerDeleted = "owners.deleted"

func Routes(h *Handlers) map[string]nats.MsgHandler {
	return map[string]nats.MsgHandler{
		SubjectOwnerDeleted: h.HandleOwnerDeleted,
	}
}
