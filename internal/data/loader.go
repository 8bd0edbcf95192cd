package data

import (
	"context"
	"fmt"

	"github.com/vietcv/skillpath/internal/data/graph"
	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/platform/neo4jdb"
	"github.com/vietcv/skillpath/internal/platform/qdrant"
	"github.com/vietcv/skillpath/internal/snapshot"
	"github.com/vietcv/skillpath/internal/types"
)

// SnapshotLoader assembles an immutable engine snapshot from the graph
// store and the vector store. It only reads; the data factory owns writes.
type SnapshotLoader struct {
	log     *logger.Logger
	graphDB *neo4jdb.Client
	vectors *qdrant.Store
	cfg     qdrant.Config
}

func NewSnapshotLoader(log *logger.Logger, graphDB *neo4jdb.Client, vectors *qdrant.Store, cfg qdrant.Config) *SnapshotLoader {
	return &SnapshotLoader{
		log:     log.With("component", "SnapshotLoader"),
		graphDB: graphDB,
		vectors: vectors,
		cfg:     cfg,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if l.graphDB == nil {
		return nil, fmt.Errorf("load snapshot: graph store not configured: %w", pkgerrors.ErrServiceUnavailable)
	}
	skills, err := graph.LoadSkills(ctx, l.graphDB, l.log)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	courses, err := graph.LoadCourses(ctx, l.graphDB, l.log)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var units []types.SemanticUnit
	skillVectors := map[string][]float32{}
	if l.vectors != nil {
		unitPoints, err := l.vectors.ScrollAll(ctx, l.cfg.UnitCollection, 0)
		if err != nil {
			// A missing vector store degrades semantics to zero rather
			// than blocking graph-only recommendations.
			l.log.Warn("semantic units unavailable, loading graph-only snapshot", "error", err)
		}
		for _, p := range unitPoints {
			courseID, _ := p.Payload["course_id"].(string)
			skillID, _ := p.Payload["skill_id"].(string)
			if courseID == "" || len(p.Vector) == 0 {
				continue
			}
			units = append(units, types.SemanticUnit{
				ID:       p.ID,
				CourseID: courseID,
				SkillID:  skillID,
				Vector:   p.Vector,
			})
		}

		skillPoints, err := l.vectors.ScrollAll(ctx, l.cfg.SkillCollection, 0)
		if err != nil {
			l.log.Warn("skill vectors unavailable", "error", err)
		}
		for _, p := range skillPoints {
			skillID, _ := p.Payload["skill_id"].(string)
			if skillID == "" {
				skillID = p.ID
			}
			if skillID == "" || len(p.Vector) == 0 {
				continue
			}
			skillVectors[skillID] = p.Vector
		}
	}

	snap := snapshot.New(skills, courses, units, skillVectors)
	l.log.Info("snapshot assembled",
		"skills", len(skills),
		"courses", len(courses),
		"semantic_units", len(units),
		"skill_vectors", len(skillVectors),
	)
	return snap, nil
}
