package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("grade not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrTeacherNotFound = errors.New("teacher not found")
)

type (
	Repository interface {
		CreateGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		// QueryGrades applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of the lesson's
		// name or Grade.Description.
		QueryGrades(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Grade, error)
		CountGrades(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		QueryGradesByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]Grade, error)
		GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (Grade, error)
		UpdateGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGradesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ng NewGrade, actorID string) (Grade, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Grade, error)
		Count(ctx context.Context, filter *QueryFilter) (int, error)
		QueryByStudent(ctx context.Context, userID string) ([]Grade, error)
		QueryByLesson(ctx context.Context, lessonID string) ([]Grade, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Grade, error)
		GetByID(ctx context.Context, id string) (Grade, error)
		Update(ctx context.Context, id string, ug UpdateGrade, actorID string) (Grade, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo        Repository
		lessonRepo  lesson.Repository
		userRepo    user.Repository
		profileRepo student.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, lessonRepo lesson.Repository, userRepo user.Repository, profileRepo student.Repository) Service {
	return &service{
		repo:        repo,
		lessonRepo:  lessonRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (svc *service) Create(ctx context.Context, ng NewGrade, actorID string) (Grade, error) {
	now := time.Now().UTC()
	grd := Grade{
		Grade:       null.IntFromPtr(ng.Grade),
		Description: null.NewString(ng.Description, ng.Description != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByID: null.StringFrom(actorID),
		UpdatedByID: null.StringFrom(actorID),
	}
	if ng.Date != nil {
		grd.Date = *ng.Date
	}
	if ng.Student != "" {
		owner, err := svc.resolveProfileOwner(ctx, ng.Student)
		if err != nil {
			return Grade{}, err
		}
		grd.StudentID = null.StringFrom(owner)
	}
	if ng.Lesson != "" {
		if err := svc.checkLesson(ctx, ng.Lesson); err != nil {
			return Grade{}, err
		}
		grd.LessonID = null.StringFrom(ng.Lesson)
	}
	return svc.repo.CreateGrade(ctx, grd)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter, ordering)
}

func (svc *service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountGrades(ctx, filter)
}

func (svc *service) QueryByStudent(ctx context.Context, userID string) ([]Grade, error) {
	return svc.repo.QueryGradesByStudent(ctx, userID)
}

func (svc *service) QueryByLesson(ctx context.Context, lessonID string) ([]Grade, error) {
	if err := svc.checkLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGradesByLesson(ctx, lessonID)
}

func (svc *service) QueryByTeacher(ctx context.Context, teacherID string) ([]Grade, error) {
	if _, err := svc.userRepo.GetUser(ctx, user.GetFilter{ID: teacherID}); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	return svc.repo.QueryGradesByTeacher(ctx, teacherID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ug UpdateGrade, actorID string) (Grade, error) {
	grd, err := svc.repo.GetGrade(ctx, id)
	if err != nil {
		return Grade{}, err
	}

	if ug.Student != nil {
		owner, err := svc.resolveProfileOwner(ctx, *ug.Student)
		if err != nil {
			return Grade{}, err
		}
		grd.StudentID = null.StringFrom(owner)
	}
	if ug.Lesson != nil {
		if err := svc.checkLesson(ctx, *ug.Lesson); err != nil {
			return Grade{}, err
		}
		grd.LessonID = null.StringFrom(*ug.Lesson)
	}
	if ug.Grade != nil {
		grd.Grade = null.IntFrom(*ug.Grade)
	}
	if ug.Date != nil {
		grd.Date = *ug.Date
	}
	if ug.Description != nil {
		grd.Description = null.StringFrom(*ug.Description)
	}
	grd.UpdatedByID = null.StringFrom(actorID)
	grd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(ctx, grd)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteGradesByID(ctx, ids)
	return err
}

func (svc *service) resolveProfileOwner(ctx context.Context, profileID string) (string, error) {
	prof, err := svc.profileRepo.GetProfile(ctx, student.GetFilter{ID: profileID})
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return "", ErrStudentNotFound
		}
		return "", err
	}
	return prof.UserID, nil
}

func (svc *service) checkLesson(ctx context.Context, lessonID string) error {
	if _, err := svc.lessonRepo.GetLesson(ctx, lessonID); err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return ErrLessonNotFound
		}
		return err
	}
	return nil
}
