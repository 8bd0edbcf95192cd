package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/types"
)

// SkillMetaRepo reads the relational skill metadata used for name→id
// entity resolution. Labels and descriptions live here; relations live in
// the graph snapshot.
type SkillMetaRepo interface {
	SearchByName(ctx context.Context, query string, limit int) ([]*types.SkillMeta, error)
	GetByIDs(ctx context.Context, ids []string) ([]*types.SkillMeta, error)
}

type skillMetaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillMetaRepo(db *gorm.DB, log *logger.Logger) SkillMetaRepo {
	return &skillMetaRepo{db: db, log: log.With("repo", "SkillMetaRepo")}
}

// SearchByName matches the query against preferred and alternative labels
// and the description. Preferred-label hits rank first, alternative-label
// hits second, description hits last.
func (r *skillMetaRepo) SearchByName(ctx context.Context, query string, limit int) ([]*types.SkillMeta, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"

	var rows []*types.SkillMeta
	err := r.db.WithContext(ctx).
		Where("preferred_label LIKE ? OR alternative_labels LIKE ? OR description LIKE ?", pattern, pattern, pattern).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN preferred_label LIKE ? THEN 1 WHEN alternative_labels LIKE ? THEN 2 ELSE 3 END, skill_id",
			Vars:               []interface{}{pattern, pattern},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("skill meta search %q: %w", query, err)
	}
	return rows, nil
}

func (r *skillMetaRepo) GetByIDs(ctx context.Context, ids []string) ([]*types.SkillMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*types.SkillMeta
	if err := r.db.WithContext(ctx).Where("skill_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("skill meta by ids: %w", err)
	}
	return rows, nil
}
