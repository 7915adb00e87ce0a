package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type lessonRepository struct {
	db *DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	les.ID = uuid.New().String()
	stored := les
	stored.Teacher, stored.CreatedBy, stored.UpdatedBy, stored.Students = nil, nil, nil, nil
	repo.db.lessons[les.ID] = &stored
	return repo.db.lessonLocked(stored), nil
}

func (repo *lessonRepository) match(les lesson.Lesson, filter *lesson.QueryFilter) bool {
	if filter == nil || filter.Search == "" {
		return true
	}
	val := strings.ToLower(filter.Search)
	return strings.Contains(strings.ToLower(les.Name.String), val) ||
		strings.Contains(strings.ToLower(les.Description.String), val) ||
		strings.Contains(strings.ToLower(les.Period.String), val)
}

func (repo *lessonRepository) queryLocked(filter *lesson.QueryFilter) []lesson.Lesson {
	lessons := make([]lesson.Lesson, 0, len(repo.db.lessons))
	for _, les := range repo.db.lessons {
		if repo.match(*les, filter) {
			lessons = append(lessons, repo.db.lessonLocked(*les))
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].CreatedAt.Before(lessons[j].CreatedAt) })
	return lessons
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lessons := repo.queryLocked(filter)
	if filter != nil && filter.Limit > 0 {
		lessons = paginate(lessons, filter.Limit, filter.Offset)
	}
	return lessons, nil
}

func (repo *lessonRepository) CountLessons(ctx context.Context, filter *lesson.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.queryLocked(filter)), nil
}

func (repo *lessonRepository) QueryLessonsByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lessons := make([]lesson.Lesson, 0)
	for lessonID, set := range repo.db.enrollments {
		if set[userID] {
			if les, ok := repo.db.lessons[lessonID]; ok {
				lessons = append(lessons, repo.db.lessonLocked(*les))
			}
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].CreatedAt.Before(lessons[j].CreatedAt) })
	return lessons, nil
}

func (repo *lessonRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if les, ok := repo.db.lessons[id]; ok {
		return repo.db.lessonLocked(*les), nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, les lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[les.ID]; !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	stored := les
	stored.Teacher, stored.CreatedBy, stored.UpdatedBy, stored.Students = nil, nil, nil, nil
	repo.db.lessons[les.ID] = &stored
	return repo.db.lessonLocked(stored), nil
}

func (repo *lessonRepository) DeleteLessonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.lessons[id]; !ok {
			continue
		}
		delete(repo.db.lessons, id)
		delete(repo.db.enrollments, id)
		for gid, grd := range repo.db.grades {
			if grd.LessonID.String == id {
				delete(repo.db.grades, gid)
			}
		}
		cnt++
	}
	return cnt, nil
}

func (repo *lessonRepository) GetStudents(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]student.Summary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.lessonStudentsLocked(lessonID), nil
}

func (repo *lessonRepository) IsEnrolled(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.enrollments[lessonID][userID], nil
}

func (repo *lessonRepository) AddStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.enrollments[lessonID] == nil {
		repo.db.enrollments[lessonID] = make(map[string]bool)
	}
	repo.db.enrollments[lessonID][userID] = true
	return nil
}

func (repo *lessonRepository) RemoveStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.enrollments[lessonID], userID)
	return nil
}
