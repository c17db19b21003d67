// Package tags maps the external "tag a piece of content" operations onto
// the store's tag link primitives with idempotent set semantics.
package tags

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/metrics"
	"github.com/recapd/recapd/internal/models"
)

type Manager struct {
	db     *database.DB
	frames *database.FrameRepo
	audio  *database.AudioRepo
	tags   *database.TagRepo
	log    *zap.Logger
}

func NewManager(db *database.DB, frames *database.FrameRepo, audio *database.AudioRepo, tagRepo *database.TagRepo, log *zap.Logger) *Manager {
	return &Manager{db: db, frames: frames, audio: audio, tags: tagRepo, log: log}
}

// Add attaches tags to the target with set-union semantics and returns the
// number of links actually created. Duplicate requests are not errors; the
// second identical call reports 0.
func (m *Manager) Add(ctx context.Context, kind string, targetID int64, tagNames []string) (int64, error) {
	k, clean, err := m.validate(kind, tagNames)
	if err != nil {
		return 0, err
	}

	var added int64
	err = database.Retry(ctx, func() error {
		added = 0
		return m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if err := m.requireTarget(ctx, tx, k, targetID); err != nil {
				return err
			}
			if len(clean) == 0 {
				return nil
			}
			n, err := m.tags.Attach(ctx, tx, k, targetID, clean)
			added = n
			return err
		})
	})
	if err != nil {
		return 0, err
	}

	metrics.TagLinksChanged.WithLabelValues("attach").Add(float64(added))
	m.log.Debug("tags attached",
		zap.String("kind", string(k)),
		zap.Int64("target_id", targetID),
		zap.Int64("added", added))
	return added, nil
}

// Remove detaches tags from the target with set-difference semantics and
// returns the number of links actually deleted. Removing an absent tag is
// a no-op.
func (m *Manager) Remove(ctx context.Context, kind string, targetID int64, tagNames []string) (int64, error) {
	k, clean, err := m.validate(kind, tagNames)
	if err != nil {
		return 0, err
	}

	var removed int64
	err = database.Retry(ctx, func() error {
		removed = 0
		return m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if err := m.requireTarget(ctx, tx, k, targetID); err != nil {
				return err
			}
			if len(clean) == 0 {
				return nil
			}
			n, err := m.tags.Detach(ctx, tx, k, targetID, clean)
			removed = n
			return err
		})
	})
	if err != nil {
		return 0, err
	}

	metrics.TagLinksChanged.WithLabelValues("detach").Add(float64(removed))
	m.log.Debug("tags detached",
		zap.String("kind", string(k)),
		zap.Int64("target_id", targetID),
		zap.Int64("removed", removed))
	return removed, nil
}

// validate parses the kind and canonicalizes the tag list. Empty tags are
// dropped silently; an unknown kind is a BadRequest.
func (m *Manager) validate(kind string, tagNames []string) (models.TagKind, []string, error) {
	k, err := models.ParseTagKind(kind)
	if err != nil {
		return "", nil, err
	}
	return k, models.CanonicalizeTags(tagNames), nil
}

func (m *Manager) requireTarget(ctx context.Context, tx *sql.Tx, kind models.TagKind, targetID int64) error {
	var exists bool
	var err error
	switch kind {
	case models.TagKindVision:
		exists, err = m.frames.FrameExists(ctx, tx, targetID)
	case models.TagKindAudio:
		exists, err = m.audio.ChunkExists(ctx, tx, targetID)
	}
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s target %d", models.ErrNotFound, kind, targetID)
	}
	return nil
}
