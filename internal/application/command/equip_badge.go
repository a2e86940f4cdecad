package command

import (
	"context"
	"log/slog"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EQUIP BADGE COMMAND
// Shows one unlocked badge on the profile card. An empty category clears it.
// ══════════════════════════════════════════════════════════════════════════════

// EquipBadgeCommand contains the badge choice.
type EquipBadgeCommand struct {
	UserID   string
	Category string
}

// EquipBadgeResult contains the equipped badge, nil when the slot was cleared.
type EquipBadgeResult struct {
	Badge *progress.Badge `json:"badge,omitempty"`
}

// EquipBadgeHandler handles EquipBadgeCommand.
type EquipBadgeHandler struct {
	source    *progress.ProfileSource
	engine    *progress.Engine
	badgeRepo progress.BadgeRepository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewEquipBadgeHandler creates a new handler. publisher may be nil.
func NewEquipBadgeHandler(
	source *progress.ProfileSource,
	engine *progress.Engine,
	badgeRepo progress.BadgeRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *EquipBadgeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EquipBadgeHandler{
		source:    source,
		engine:    engine,
		badgeRepo: badgeRepo,
		publisher: publisher,
		logger:    logger.With("handler", "equip_badge"),
	}
}

// Handle executes the command.
// Returns shared.ErrUnknownBadge for an unknown category and
// shared.ErrBadgeLocked when the badge has not been earned yet.
func (h *EquipBadgeHandler) Handle(ctx context.Context, cmd EquipBadgeCommand) (*EquipBadgeResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	var category progress.BadgeCategory
	if cmd.Category != "" {
		if category, err = progress.ParseBadgeCategory(cmd.Category); err != nil {
			return nil, err
		}
	}

	// Load also rejects unknown users.
	input, err := h.source.Load(ctx, userID.String())
	if err != nil {
		return nil, err
	}

	result := &EquipBadgeResult{}
	var tier string
	if category != "" {
		badge, err := h.engine.CanEquip(input, category)
		if err != nil {
			return nil, err
		}
		result.Badge = &badge
		tier = badge.Tier.String()
	}

	if err := h.badgeRepo.SetEquipped(ctx, userID.String(), category); err != nil {
		return nil, err
	}

	h.logger.Info("badge equipped", "user_id", userID, "category", category, "tier", tier)

	if h.publisher != nil {
		event := shared.NewBadgeEquippedEvent(userID.String(), string(category), tier)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish badge event", "user_id", userID, "error", err)
		}
	}

	return result, nil
}
