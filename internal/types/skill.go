package types

import (
	"time"

	"gorm.io/datatypes"
)

// Skill is one node of the ESCO-style taxonomy snapshot. Instances are
// immutable once loaded; every component reads them through the snapshot.
type Skill struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	AltLabels []string `json:"alt_labels,omitempty"`
	Level     int      `json:"level"`
	Broader   []string `json:"broader,omitempty"`
	Narrower  []string `json:"narrower,omitempty"`
	Essential []string `json:"essential,omitempty"`
}

// SkillMeta is the relational row backing name search. The graph snapshot is
// the source of truth for relations; this table only carries labels and
// descriptions for entity resolution.
type SkillMeta struct {
	SkillID        string         `gorm:"column:skill_id;primaryKey" json:"skill_id"`
	PreferredLabel string         `gorm:"column:preferred_label;not null;index" json:"label"`
	AltLabels      datatypes.JSON `gorm:"column:alternative_labels;type:jsonb" json:"alt_labels,omitempty"`
	SkillType      string         `gorm:"column:skill_type" json:"skill_type,omitempty"`
	Description    string         `gorm:"column:description" json:"description,omitempty"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SkillMeta) TableName() string { return "esco_skill" }
