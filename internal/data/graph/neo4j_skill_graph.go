package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/platform/neo4jdb"
	"github.com/vietcv/skillpath/internal/types"
)

// LoadSkills pulls the taxonomy: every Skill node with its BROADER,
// NARROWER and ESSENTIAL relations.
func LoadSkills(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) ([]*types.Skill, error) {
	if client == nil || client.Driver == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: client.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (s:Skill)
			OPTIONAL MATCH (s)-[:BROADER]->(b:Skill)
			OPTIONAL MATCH (n:Skill)-[:BROADER]->(s)
			OPTIONAL MATCH (s)-[:ESSENTIAL]->(e:Skill)
			RETURN s.skill_id        AS skill_id,
			       s.preferred_label AS label,
			       s.alt_labels      AS alt_labels,
			       coalesce(s.level, 0) AS level,
			       collect(DISTINCT b.skill_id) AS broader,
			       collect(DISTINCT n.skill_id) AS narrower,
			       collect(DISTINCT e.skill_id) AS essential
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load skills: %w", err)
	}

	records := rows.([]*neo4j.Record)
	skills := make([]*types.Skill, 0, len(records))
	for _, rec := range records {
		id := stringValue(rec, "skill_id")
		if id == "" {
			continue
		}
		skills = append(skills, &types.Skill{
			ID:        id,
			Label:     stringValue(rec, "label"),
			AltLabels: stringSlice(rec, "alt_labels"),
			Level:     intValue(rec, "level"),
			Broader:   stringSlice(rec, "broader"),
			Narrower:  stringSlice(rec, "narrower"),
			Essential: stringSlice(rec, "essential"),
		})
	}
	log.Debug("skills loaded from graph", "count", len(skills))
	return skills, nil
}

// LoadCourses pulls every Course node with its weighted TEACHES edges and
// REQUIRES prerequisites.
func LoadCourses(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) ([]*types.Course, error) {
	if client == nil || client.Driver == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: client.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (c:Course)
			OPTIONAL MATCH (c)-[t:TEACHES]->(taught:Skill)
			OPTIONAL MATCH (c)-[:REQUIRES]->(req:Skill)
			RETURN c.course_id     AS course_id,
			       c.course_title  AS title,
			       c.category      AS category,
			       coalesce(c.difficulty, 0)     AS difficulty,
			       coalesce(c.duration_hours, 0.0) AS duration_hours,
			       collect(DISTINCT {skill_id: taught.skill_id, weight: coalesce(t.attention_weight, t.similarity_score, 0.0)}) AS teaches,
			       collect(DISTINCT req.skill_id) AS requires
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load courses: %w", err)
	}

	records := rows.([]*neo4j.Record)
	courses := make([]*types.Course, 0, len(records))
	for _, rec := range records {
		id := stringValue(rec, "course_id")
		if id == "" {
			continue
		}
		c := &types.Course{
			ID:            id,
			Title:         stringValue(rec, "title"),
			Category:      stringValue(rec, "category"),
			Difficulty:    intValue(rec, "difficulty"),
			DurationHours: floatValue(rec, "duration_hours"),
			Requires:      stringSlice(rec, "requires"),
		}
		if raw, ok := rec.Get("teaches"); ok {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					m, ok := item.(map[string]any)
					if !ok {
						continue
					}
					skillID, _ := m["skill_id"].(string)
					if skillID == "" {
						continue
					}
					weight, _ := m["weight"].(float64)
					c.Teaches = append(c.Teaches, types.TeachesEdge{SkillID: skillID, Weight: weight})
				}
			}
		}
		courses = append(courses, c)
	}
	log.Debug("courses loaded from graph", "count", len(courses))
	return courses, nil
}

func stringValue(rec *neo4j.Record, key string) string {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return ""
	}
	s, _ := raw.(string)
	return s
}

func intValue(rec *neo4j.Record, key string) int {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return 0
	}
	switch v := raw.(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatValue(rec *neo4j.Record, key string) float64 {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringSlice(rec *neo4j.Record, key string) []string {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
