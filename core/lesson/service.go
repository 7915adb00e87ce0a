package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("lesson not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrAlreadyEnrolled = errors.New("student already in lesson")
	ErrNotEnrolled     = errors.New("student not in lesson")
)

type (
	Repository interface {
		CreateLesson(ctx context.Context, les Lesson, exec ...core.DBExecutor) (Lesson, error)
		// QueryLessons applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Lesson.Name,
		// Lesson.Description or Lesson.Period.
		QueryLessons(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Lesson, error)
		CountLessons(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		QueryLessonsByStudent(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Lesson, error)
		GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		UpdateLesson(ctx context.Context, les Lesson, exec ...core.DBExecutor) (Lesson, error)
		DeleteLessonsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		GetStudents(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]student.Summary, error)
		IsEnrolled(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) (bool, error)
		AddStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error
		RemoveStudent(ctx context.Context, lessonID, userID string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nl NewLesson, actorID string) (Lesson, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Lesson, error)
		Count(ctx context.Context, filter *QueryFilter) (int, error)
		QueryByStudentProfile(ctx context.Context, profileID string) ([]Lesson, error)
		GetByID(ctx context.Context, id string) (Lesson, error)
		Update(ctx context.Context, id string, ul UpdateLesson, actorID string) (Lesson, error)
		Delete(ctx context.Context, ids ...string) error
		Students(ctx context.Context, lessonID string) ([]student.Summary, error)
		Enroll(ctx context.Context, lessonID, userID string) error
		Unenroll(ctx context.Context, lessonID, userID string) error
		EnrollProfile(ctx context.Context, profileID, lessonID string) error
		UnenrollProfile(ctx context.Context, profileID, lessonID string) error
	}

	service struct {
		repo        Repository
		userRepo    user.Repository
		profileRepo student.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userRepo user.Repository, profileRepo student.Repository) Service {
	return &service{
		repo:        repo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (svc *service) Create(ctx context.Context, nl NewLesson, actorID string) (Lesson, error) {
	now := time.Now().UTC()
	les := Lesson{
		Name:        null.NewString(nl.Name, nl.Name != ""),
		Description: null.NewString(nl.Description, nl.Description != ""),
		Period:      null.NewString(nl.Period, nl.Period != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByID: null.StringFrom(actorID),
	}
	if nl.Teacher != "" {
		teacher, err := svc.resolveTeacher(ctx, nl.Teacher)
		if err != nil {
			return Lesson{}, err
		}
		les.TeacherID = null.StringFrom(teacher.ID)
	}
	return svc.repo.CreateLesson(ctx, les)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, filter, ordering)
}

func (svc *service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountLessons(ctx, filter)
}

// QueryByStudentProfile returns the lessons the profile's owner is enrolled in.
func (svc *service) QueryByStudentProfile(ctx context.Context, profileID string) ([]Lesson, error) {
	prof, err := svc.profileRepo.GetProfile(ctx, student.GetFilter{ID: profileID})
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return svc.repo.QueryLessonsByStudent(ctx, prof.UserID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ul UpdateLesson, actorID string) (Lesson, error) {
	les, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	if ul.Name != nil {
		les.Name = null.StringFrom(*ul.Name)
	}
	if ul.Description != nil {
		les.Description = null.StringFrom(*ul.Description)
	}
	if ul.Period != nil {
		les.Period = null.StringFrom(*ul.Period)
	}
	if ul.Teacher != nil {
		teacher, err := svc.resolveTeacher(ctx, *ul.Teacher)
		if err != nil {
			return Lesson{}, err
		}
		les.TeacherID = null.StringFrom(teacher.ID)
	}
	les.UpdatedByID = null.StringFrom(actorID)
	les.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, les)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteLessonsByID(ctx, ids)
	return err
}

func (svc *service) Students(ctx context.Context, lessonID string) ([]student.Summary, error) {
	if _, err := svc.repo.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return svc.repo.GetStudents(ctx, lessonID)
}

// Enroll adds the user to the lesson's student list.
func (svc *service) Enroll(ctx context.Context, lessonID, userID string) error {
	if _, err := svc.repo.GetLesson(ctx, lessonID); err != nil {
		return err
	}
	usr, err := svc.resolveStudent(ctx, userID)
	if err != nil {
		return err
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, lessonID, usr.ID)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}
	return svc.repo.AddStudent(ctx, lessonID, usr.ID)
}

func (svc *service) Unenroll(ctx context.Context, lessonID, userID string) error {
	if _, err := svc.repo.GetLesson(ctx, lessonID); err != nil {
		return err
	}
	usr, err := svc.resolveStudent(ctx, userID)
	if err != nil {
		return err
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, lessonID, usr.ID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return svc.repo.RemoveStudent(ctx, lessonID, usr.ID)
}

// EnrollProfile adds the profile's owner to the lesson's student list;
// the student is checked before the lesson.
func (svc *service) EnrollProfile(ctx context.Context, profileID, lessonID string) error {
	usr, err := svc.resolveProfileOwner(ctx, profileID)
	if err != nil {
		return err
	}
	if _, err = svc.repo.GetLesson(ctx, lessonID); err != nil {
		return err
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, lessonID, usr)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}
	return svc.repo.AddStudent(ctx, lessonID, usr)
}

func (svc *service) UnenrollProfile(ctx context.Context, profileID, lessonID string) error {
	usr, err := svc.resolveProfileOwner(ctx, profileID)
	if err != nil {
		return err
	}
	if _, err = svc.repo.GetLesson(ctx, lessonID); err != nil {
		return err
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, lessonID, usr)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return svc.repo.RemoveStudent(ctx, lessonID, usr)
}

func (svc *service) resolveTeacher(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.userRepo.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrTeacherNotFound
		}
		return user.User{}, err
	}
	return usr, nil
}

func (svc *service) resolveStudent(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.userRepo.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrStudentNotFound
		}
		return user.User{}, err
	}
	return usr, nil
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
