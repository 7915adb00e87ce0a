package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

// buildLocked resolves the student card and full lesson; db.mutex must be held.
func (repo *gradeRepository) buildLocked(grd grade.Grade) grade.Grade {
	if grd.StudentID.Valid {
		grd.Student = repo.db.summaryLocked(grd.StudentID.String)
	}
	if grd.LessonID.Valid {
		if les, ok := repo.db.lessons[grd.LessonID.String]; ok {
			full := repo.db.lessonLocked(*les)
			grd.Lesson = &full
		}
	}
	if grd.CreatedByID.Valid {
		grd.CreatedBy = repo.db.summaryLocked(grd.CreatedByID.String)
	}
	if grd.UpdatedByID.Valid {
		grd.UpdatedBy = repo.db.summaryLocked(grd.UpdatedByID.String)
	}
	return grd
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grd.ID = uuid.New().String()
	stored := grd
	stored.Student, stored.Lesson, stored.CreatedBy, stored.UpdatedBy = nil, nil, nil, nil
	repo.db.grades[grd.ID] = &stored
	return repo.buildLocked(stored), nil
}

func (repo *gradeRepository) match(grd grade.Grade, filter *grade.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		val := strings.ToLower(filter.Search)
		found := strings.Contains(strings.ToLower(grd.Description.String), val)
		if !found && grd.LessonID.Valid {
			if les, ok := repo.db.lessons[grd.LessonID.String]; ok {
				found = strings.Contains(strings.ToLower(les.Name.String), val)
			}
		}
		if !found {
			return false
		}
	}
	if filter.Date.Valid {
		if !grd.Date.Valid || !grd.Date.Time.Equal(filter.Date.Time) {
			return false
		}
	}
	return true
}

func (repo *gradeRepository) queryLocked(filter *grade.QueryFilter) []grade.Grade {
	grades := make([]grade.Grade, 0, len(repo.db.grades))
	for _, grd := range repo.db.grades {
		if repo.match(*grd, filter) {
			grades = append(grades, repo.buildLocked(*grd))
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.Before(grades[j].CreatedAt) })
	return grades
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter *grade.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := repo.queryLocked(filter)
	if filter != nil && filter.Limit > 0 {
		grades = paginate(grades, filter.Limit, filter.Offset)
	}
	return grades, nil
}

func (repo *gradeRepository) CountGrades(ctx context.Context, filter *grade.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.queryLocked(filter)), nil
}

func (repo *gradeRepository) queryByLocked(keep func(grade.Grade) bool) []grade.Grade {
	grades := make([]grade.Grade, 0)
	for _, grd := range repo.db.grades {
		if keep(*grd) {
			grades = append(grades, repo.buildLocked(*grd))
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.Before(grades[j].CreatedAt) })
	return grades
}

func (repo *gradeRepository) QueryGradesByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryByLocked(func(grd grade.Grade) bool { return grd.StudentID.String == userID }), nil
}

func (repo *gradeRepository) QueryGradesByLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryByLocked(func(grd grade.Grade) bool { return grd.LessonID.String == lessonID }), nil
}

func (repo *gradeRepository) QueryGradesByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryByLocked(func(grd grade.Grade) bool {
		if !grd.LessonID.Valid {
			return false
		}
		les, ok := repo.db.lessons[grd.LessonID.String]
		return ok && les.TeacherID.String == teacherID
	}), nil
}

func (repo *gradeRepository) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grd, ok := repo.db.grades[id]; ok {
		return repo.buildLocked(*grd), nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.grades[grd.ID]; !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	stored := grd
	stored.Student, stored.Lesson, stored.CreatedBy, stored.UpdatedBy = nil, nil, nil, nil
	repo.db.grades[grd.ID] = &stored
	return repo.buildLocked(stored), nil
}

func (repo *gradeRepository) DeleteGradesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.grades[id]; ok {
			delete(repo.db.grades, id)
			cnt++
		}
	}
	return cnt, nil
}
