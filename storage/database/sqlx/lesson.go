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
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type lessonRepository struct {
	exec core.DBExecutor
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(exec core.DBExecutor) *lessonRepository {
	return &lessonRepository{exec: exec}
}

type lessonRow struct {
	lesson.Lesson
	T  summaryRow `db:"t"`
	CB summaryRow `db:"cb"`
	UB summaryRow `db:"ub"`
}

func (r lessonRow) lesson() lesson.Lesson {
	les := r.Lesson
	les.Teacher = r.T.summary()
	les.CreatedBy = r.CB.summary()
	les.UpdatedBy = r.UB.summary()
	les.Students = make([]student.Summary, 0)
	return les
}

func (repo lessonRepository) baseSelect() string {
	return fmt.Sprintf(
		`SELECT l.*, %s, %s, %s FROM lesson l %s %s %s`,
		summarySelect("tu", "tp", "t"),
		summarySelect("cbu", "cbp", "cb"),
		summarySelect("ubu", "ubp", "ub"),
		summaryJoin("l.teacher_id", "tu", "tp"),
		summaryJoin("l.created_by_id", "cbu", "cbp"),
		summaryJoin("l.updated_by_id", "ubu", "ubp"),
	)
}

// trapNoRowsErr maps psql "no rows" err to lesson.ErrNotFound
func (repo lessonRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return lesson.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// loadStudents fills the enrolled student cards of the given lessons in one query.
func (repo lessonRepository) loadStudents(ctx context.Context, exe core.DBExecutor, lessons []lesson.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	ids := make([]string, 0, len(lessons))
	for _, les := range lessons {
		ids = append(ids, les.ID)
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		`SELECT ls.lesson_id AS lesson_id, %s FROM lesson_student ls %s WHERE ls.lesson_id IN (?) ORDER BY u.email`,
		summarySelect("u", "p", "s"), summaryJoin("ls.user_id", "u", "p"),
	), ids)
	if err != nil {
		return errors.Wrap(err, "loading lesson students")
	}

	var rows []struct {
		LessonID string     `db:"lesson_id"`
		S        summaryRow `db:"s"`
	}
	if err = exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "loading lesson students")
	}

	byLesson := make(map[string][]student.Summary, len(lessons))
	for _, row := range rows {
		if card := row.S.summary(); card != nil {
			byLesson[row.LessonID] = append(byLesson[row.LessonID], *card)
		}
	}
	for i := range lessons {
		if cards, ok := byLesson[lessons[i].ID]; ok {
			lessons[i].Students = cards
		}
	}
	return nil
}

func (repo lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	les.ID = uuid.New().String()
	const query = `
INSERT INTO lesson (id, name, description, period, teacher_id, created_at, updated_at, created_by_id, updated_by_id)
VALUES (:id, :name, :description, :period, :teacher_id, :created_at, :updated_at, :created_by_id, :updated_by_id)`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, les); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return repo.GetLesson(ctx, les.ID, exec...)
}

func (repo lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	query := repo.baseSelect()
	var args []interface{}
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` WHERE (l.name ILIKE ? OR l.description ILIKE ? OR l.period ILIKE ?)`
		args = append(args, val, val, val)
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, "l."+ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	} else {
		query += ` ORDER BY l.created_at`
	}
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)
	}

	exe := getExec(repo.exec, exec)
	var rows []lessonRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	if err := repo.loadStudents(ctx, exe, lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (repo lessonRepository) CountLessons(ctx context.Context, filter *lesson.QueryFilter, exec ...core.DBExecutor) (int, error) {
	query := `SELECT COUNT(*) FROM lesson l`
	var args []interface{}
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` WHERE (l.name ILIKE ? OR l.description ILIKE ? OR l.period ILIKE ?)`
		args = append(args, val, val, val)
	}

	exe := getExec(repo.exec, exec)
	var count int
	if err := exe.GetContext(ctx, &count, exe.Rebind(query), args...); err != nil {
		return 0, errors.Wrap(err, "counting lessons")
	}
	return count, nil
}

func (repo lessonRepository) QueryLessonsByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	query := repo.baseSelect() + ` JOIN lesson_student ls ON ls.lesson_id = l.id WHERE ls.user_id = ? ORDER BY l.created_at`

	exe := getExec(repo.exec, exec)
	var rows []lessonRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), userID); err != nil {
		return nil, errors.Wrap(err, "querying student lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	if err := repo.loadStudents(ctx, exe, lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (repo lessonRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return lesson.Lesson{}, lesson.ErrNotFound
	}

	exe := getExec(repo.exec, exec)
	var row lessonRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(repo.baseSelect()+` WHERE l.id = ?`), id); err != nil {
		return lesson.Lesson{}, repo.trapNoRowsErr(err, "finding lesson")
	}
	lessons := []lesson.Lesson{row.lesson()}
	if err := repo.loadStudents(ctx, exe, lessons); err != nil {
		return lesson.Lesson{}, err
	}
	return lessons[0], nil
}

func (repo lessonRepository) UpdateLesson(ctx context.Context, les lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	const query = `
UPDATE lesson
SET name          = :name,
    description   = :description,
    period        = :period,
    teacher_id    = :teacher_id,
    updated_at    = :updated_at,
    updated_by_id = :updated_by_id
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, les); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return repo.GetLesson(ctx, les.ID, exec...)
}

func (repo lessonRepository) DeleteLessonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	query, args, err := sqlx.In(`DELETE FROM lesson WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting lessons")
	}
	exe := getExec(repo.exec, exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting lessons")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting lessons")
	}
	return int(cnt), nil
}

func (repo lessonRepository) GetStudents(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]student.Summary, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM lesson_student ls %s WHERE ls.lesson_id = ? ORDER BY u.email`,
		summarySelect("u", "p", "s"), summaryJoin("ls.user_id", "u", "p"),
	)

	exe := getExec(repo.exec, exec)
	var rows []struct {
		S summaryRow `db:"s"`
	}
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), lessonID); err != nil {
		return nil, errors.Wrap(err, "querying lesson students")
	}
	cards := make([]student.Summary, 0, len(rows))
	for _, row := range rows {
		if card := row.S.summary(); card != nil {
			cards = append(cards, *card)
		}
	}
	return cards, nil
}

func (repo lessonRepository) IsEnrolled(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) (bool, error) {
	exe := getExec(repo.exec, exec)
	var exists bool
	err := exe.GetContext(ctx, &exists,
		exe.Rebind(`SELECT EXISTS (SELECT 1 FROM lesson_student WHERE lesson_id = ? AND user_id = ?)`), lessonID, userID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}

func (repo lessonRepository) AddStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	_, err := exe.ExecContext(ctx,
		exe.Rebind(`INSERT INTO lesson_student (lesson_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`), lessonID, userID)
	if err != nil {
		return errors.Wrap(err, "adding lesson student")
	}
	return nil
}

func (repo lessonRepository) RemoveStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	_, err := exe.ExecContext(ctx,
		exe.Rebind(`DELETE FROM lesson_student WHERE lesson_id = ? AND user_id = ?`), lessonID, userID)
	if err != nil {
		return errors.Wrap(err, "removing lesson student")
	}
	return nil
}
