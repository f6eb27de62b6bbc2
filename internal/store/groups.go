package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/query"
)

// hostedGroupsSQL selects the live groups a user hosted before @enddate.
const hostedGroupsSQL = `
SELECT g.* FROM "groups" g
LEFT JOIN "user_groups" ug ON g.id = ug.group_id
WHERE ug.role = 'HOST'
  AND ug.user_id = @hostid
  AND g.deleted_at IS NULL
  AND ug.deleted_at IS NULL
  AND ug.created_at < @enddate
  AND g.created_at < @enddate`

// HostedGroups returns the groups hostID was host of before endDate.
func (s *Store) HostedGroups(ctx context.Context, hostID uint, endDate time.Time) ([]model.Group, error) {
	groups := []model.Group{}
	err := s.db.WithContext(ctx).
		Raw(hostedGroupsSQL, map[string]any{"hostid": hostID, "enddate": endDate.UTC()}).
		Scan(&groups).Error
	if err != nil {
		return nil, wrap("hosted groups", err)
	}
	return groups, nil
}

// CreateGroup inserts g and sets its ID.
func (s *Store) CreateGroup(ctx context.Context, g *model.Group) error {
	return wrap("create group", s.db.WithContext(ctx).Create(g).Error)
}

// AddMember inserts a membership row.
func (s *Store) AddMember(ctx context.Context, m *model.UserGroup) error {
	return wrap("add member", s.db.WithContext(ctx).Create(m).Error)
}

// CreateEvent inserts e and sets its ID.
func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	return wrap("create event", s.db.WithContext(ctx).Create(e).Error)
}

// DeleteEvent removes an event. Tiers that referenced it stay and lose the
// reference.
func (s *Store) DeleteEvent(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := apply(tx.Model(&model.Tier{}), query.Eq(query.FieldEventID, id))
		if err := refs.Update("event_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrap("delete event", err)
}
