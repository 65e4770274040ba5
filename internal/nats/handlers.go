package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/nats-io/nats.go"
)

// OwnerDeletedPayload is published by other services when an owning record goes away.
type OwnerDeletedPayload struct {
	OwnerType string `json:"owner_type"`
	OwnerID   string `json:"owner_id"`
}

type UploadDeleter interface {
	Delete(ctx context.Context, owner models.HasAssets, asset *models.Asset) (services.DeleteReport, error)
}

// Handlers purges uploads in response to events from other services.
type Handlers struct {
	Uploads UploadDeleter
	Owners  *models.OwnerRegistry
	Timeout time.Duration
}

var errBadPayload = errors.New("invalid payload")

func (h *Handlers) HandleOwnerDeleted(msg *nats.Msg) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := h.purgeOwner(ctx, msg.Data)
	switch {
	case err == nil:
		ack(msg)
	case errors.Is(err, errBadPayload), errors.Is(err, models.ErrUnknownOwnerKind):
		// Redelivery cannot fix these.
		log.Printf("[NATS] owners.deleted: dropping message: %v", err)
		term(msg)
	default:
		log.Printf("[NATS] owners.deleted: %v", err)
		nak(msg)
	}
}

func (h *Handlers) purgeOwner(ctx context.Context, data []byte) error {
	var payload OwnerDeletedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if payload.OwnerType == "" || payload.OwnerID == "" {
		return fmt.Errorf("%w: missing owner_type or owner_id", errBadPayload)
	}
	ref := models.OwnerRef{Kind: models.OwnerKind(payload.OwnerType), ID: payload.OwnerID}

	// The owner record is already gone, so the reference itself stands in for it.
	if !h.Owners.Known(ref.Kind) {
		return fmt.Errorf("%w: %q", models.ErrUnknownOwnerKind, ref.Kind)
	}

	log.Printf("[NATS] Processing owners.deleted for %s", ref)
	report, err := h.Uploads.Delete(ctx, ref, nil)
	if err != nil {
		return fmt.Errorf("purge of %s stopped after %d uploads: %w", ref, len(report.Deleted()), err)
	}
	log.Printf("[NATS] Deleted %d uploads for %s", len(report.Deleted()), ref)
	return nil
}

func ack(msg *nats.Msg) {
	if err := msg.Ack(); err != nil {
		log.Printf("[NATS] Failed to ack message: %v", err)
	}
}

// nak asks for redelivery.
func nak(msg *nats.Msg) {
	if err := msg.Nak(); err != nil {
		log.Printf("[NATS] Failed to nak message: %v", err)
	}
}

func term(msg *nats.Msg) {
	if err := msg.Term(); err != nil {
		log.Printf("[NATS] Failed to term message: %v", err)
	}
}
