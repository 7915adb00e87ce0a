package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/grade"
	"github.com/AhenkERP/studentgradesys/core/lesson"
)

type gradeRepository struct {
	exec    core.DBExecutor
	lessons *lessonRepository
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor, lessons *lessonRepository) *gradeRepository {
	return &gradeRepository{exec: exec, lessons: lessons}
}

type gradeRow struct {
	grade.Grade
	S  summaryRow `db:"s"`
	CB summaryRow `db:"cb"`
	UB summaryRow `db:"ub"`
}

func (r gradeRow) grade() grade.Grade {
	grd := r.Grade
	grd.Student = r.S.summary()
	grd.CreatedBy = r.CB.summary()
	grd.UpdatedBy = r.UB.summary()
	return grd
}

func (repo gradeRepository) baseSelect() string {
	return fmt.Sprintf(
		`SELECT g.*, %s, %s, %s FROM grade g %s %s %s`,
		summarySelect("su", "sp", "s"),
		summarySelect("cbu", "cbp", "cb"),
		summarySelect("ubu", "ubp", "ub"),
		summaryJoin("g.student_id", "su", "sp"),
		summaryJoin("g.created_by_id", "cbu", "cbp"),
		summaryJoin("g.updated_by_id", "ubu", "ubp"),
	)
}

// trapNoRowsErr maps psql "no rows" err to grade.ErrNotFound
func (repo gradeRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return grade.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// queryLessonsByIDs fetches full lessons keyed by ID.
func (repo lessonRepository) queryLessonsByIDs(ctx context.Context, ids []string, exe core.DBExecutor) (map[string]lesson.Lesson, error) {
	if len(ids) == 0 {
		return map[string]lesson.Lesson{}, nil
	}
	query, args, err := sqlx.In(repo.baseSelect()+` WHERE l.id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons by IDs")
	}

	var rows []lessonRow
	if err = exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons by IDs")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	if err = repo.loadStudents(ctx, exe, lessons); err != nil {
		return nil, err
	}

	byID := make(map[string]lesson.Lesson, len(lessons))
	for _, les := range lessons {
		byID[les.ID] = les
	}
	return byID, nil
}

// loadLessons fills the full lesson of each grade.
func (repo gradeRepository) loadLessons(ctx context.Context, exe core.DBExecutor, grades []grade.Grade) error {
	ids := make([]string, 0, len(grades))
	seen := make(map[string]bool, len(grades))
	for _, grd := range grades {
		if grd.LessonID.Valid && !seen[grd.LessonID.String] {
			ids = append(ids, grd.LessonID.String)
			seen[grd.LessonID.String] = true
		}
	}

	byID, err := repo.lessons.queryLessonsByIDs(ctx, ids, exe)
	if err != nil {
		return err
	}
	for i := range grades {
		if les, ok := byID[grades[i].LessonID.String]; ok {
			les := les
			grades[i].Lesson = &les
		}
	}
	return nil
}

func (repo gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	grd.ID = uuid.New().String()
	const query = `
INSERT INTO grade (id, student_id, lesson_id, grade, date, description, created_at, updated_at, created_by_id, updated_by_id)
VALUES (:id, :student_id, :lesson_id, :grade, :date, :description, :created_at, :updated_at, :created_by_id, :updated_by_id)`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, grd); err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return repo.GetGrade(ctx, grd.ID, exec...)
}

func (repo gradeRepository) queryGrades(ctx context.Context, query string, args []interface{}, exec []core.DBExecutor) ([]grade.Grade, error) {
	exe := getExec(repo.exec, exec)
	var rows []gradeRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.grade())
	}
	if err := repo.loadLessons(ctx, exe, grades); err != nil {
		return nil, err
	}
	return grades, nil
}

func (repo gradeRepository) gradeConds(filter *grade.QueryFilter) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter == nil {
		return conds, args
	}

	// grades with lesson name or description matching the search keyword
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, `(fl.name ILIKE ? OR g.description ILIKE ?)`)
		args = append(args, val, val)
	}
	if filter.Date.Valid {
		conds = append(conds, `g.date = ?`)
		args = append(args, filter.Date)
	}
	return conds, args
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter *grade.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]grade.Grade, error) {
	query := repo.baseSelect() + ` LEFT JOIN lesson fl ON fl.id = g.lesson_id`
	conds, args := repo.gradeConds(filter)
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, "g."+ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	} else {
		query += ` ORDER BY g.created_at`
	}
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)
	}

	return repo.queryGrades(ctx, query, args, exec)
}

func (repo gradeRepository) CountGrades(ctx context.Context, filter *grade.QueryFilter, exec ...core.DBExecutor) (int, error) {
	query := `SELECT COUNT(*) FROM grade g LEFT JOIN lesson fl ON fl.id = g.lesson_id`
	conds, args := repo.gradeConds(filter)
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	exe := getExec(repo.exec, exec)
	var count int
	if err := exe.GetContext(ctx, &count, exe.Rebind(query), args...); err != nil {
		return 0, errors.Wrap(err, "counting grades")
	}
	return count, nil
}

func (repo gradeRepository) QueryGradesByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	query := repo.baseSelect() + ` WHERE g.student_id = ? ORDER BY g.created_at`
	return repo.queryGrades(ctx, query, []interface{}{userID}, exec)
}

func (repo gradeRepository) QueryGradesByLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	query := repo.baseSelect() + ` WHERE g.lesson_id = ? ORDER BY g.created_at`
	return repo.queryGrades(ctx, query, []interface{}{lessonID}, exec)
}

func (repo gradeRepository) QueryGradesByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	query := repo.baseSelect() + ` JOIN lesson fl ON fl.id = g.lesson_id WHERE fl.teacher_id = ? ORDER BY g.created_at`
	return repo.queryGrades(ctx, query, []interface{}{teacherID}, exec)
}

func (repo gradeRepository) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (grade.Grade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}

	exe := getExec(repo.exec, exec)
	var row gradeRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(repo.baseSelect()+` WHERE g.id = ?`), id); err != nil {
		return grade.Grade{}, repo.trapNoRowsErr(err, "finding grade")
	}
	grades := []grade.Grade{row.grade()}
	if err := repo.loadLessons(ctx, exe, grades); err != nil {
		return grade.Grade{}, err
	}
	return grades[0], nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	const query = `
UPDATE grade
SET student_id    = :student_id,
    lesson_id     = :lesson_id,
    grade         = :grade,
    date          = :date,
    description   = :description,
    updated_at    = :updated_at,
    updated_by_id = :updated_by_id
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, grd); err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	return repo.GetGrade(ctx, grd.ID, exec...)
}

func (repo gradeRepository) DeleteGradesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	query, args, err := sqlx.In(`DELETE FROM grade WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting grades")
	}
	exe := getExec(repo.exec, exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting grades")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting grades")
	}
	return int(cnt), nil
}
