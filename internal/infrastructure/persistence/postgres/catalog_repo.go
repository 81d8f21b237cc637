package postgres

import (
	"context"
	"fmt"

	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE CATALOG IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements progress.CourseCatalog for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// GetCourse returns a course and its modules ordered by position.
func (r *CatalogRepository) GetCourse(ctx context.Context, courseID progress.CourseID) (*progress.Course, error) {
	var (
		course progress.Course
		id     string
	)
	err := r.conn.QueryRow(ctx,
		`SELECT id, title FROM courses WHERE id = $1`,
		courseID.String(),
	).Scan(&id, &course.Title)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	course.ID = progress.CourseID(id)

	rows, err := r.conn.Query(ctx, `
		SELECT id, course_id, title, position
		FROM course_modules
		WHERE course_id = $1
		ORDER BY position
	`, courseID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query course modules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m        progress.CourseModule
			mid, cid string
		)
		if err := rows.Scan(&mid, &cid, &m.Title, &m.Position); err != nil {
			return nil, fmt.Errorf("failed to scan course module: %w", err)
		}
		m.ID = progress.ModuleID(mid)
		m.CourseID = progress.CourseID(cid)
		course.Modules = append(course.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &course, nil
}

// UpsertCourse writes a course and replaces its module list. Used by seed
// tooling and catalog sync.
func (r *CatalogRepository) UpsertCourse(ctx context.Context, course *progress.Course) error {
	if course.ModuleCount() == 0 {
		return shared.ErrEmptyCourse
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO courses (id, title) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title
	`, course.ID.String(), course.Title)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}

	_, err = r.conn.Exec(ctx,
		`DELETE FROM course_modules WHERE course_id = $1`,
		course.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to clear course modules: %w", err)
	}

	for _, m := range course.Modules {
		_, err := r.conn.Exec(ctx, `
			INSERT INTO course_modules (id, course_id, title, position)
			VALUES ($1, $2, $3, $4)
		`, m.ID.String(), course.ID.String(), m.Title, m.Position)
		if err != nil {
			return fmt.Errorf("failed to insert course module: %w", err)
		}
	}

	return nil
}
