package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type lessonApi struct {
	deps ServerDeps
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := lessonApi{deps: deps}

	lg := g.Group("/lessons", jwt)

	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
	lg.GET("/:id/students", api.queryStudents)

	// staff endpoints
	lg.POST("", api.create, staffMiddleware())
	lg.PUT("/:id", api.update, staffMiddleware())
	lg.PATCH("/:id", api.update, staffMiddleware())
	lg.DELETE("/:id", api.destroy, staffMiddleware())
	lg.POST("/:id/students/:studentId", api.addStudent, staffMiddleware())
	lg.DELETE("/:id/students/:studentId", api.removeStudent, staffMiddleware())
}

// Handlers

func (api *lessonApi) query(ctx echo.Context) error {
	filter := new(lesson.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, Page{Count: 0, Results: []lesson.Lesson{}})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, lesson.OrderableFields...); err != nil {
		return err
	}
	pagination := new(Pagination)
	pagination.Bind(ctx, api.deps.Conf)
	filter.Limit = pagination.Limit()
	filter.Offset = pagination.Offset()

	reqCtx := ctx.Request().Context()
	count, err := api.deps.LessonSvc.Count(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "counting lessons")
	}
	lessons, err := api.deps.LessonSvc.Query(reqCtx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, Page{Count: count, Results: lessons})
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	les, err := api.deps.LessonSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}
	return ctx.JSON(http.StatusOK, les)
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	les, err := api.deps.LessonSvc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		if errors.Cause(err) == lesson.ErrTeacherNotFound {
			return fail(ctx, "Teacher not found.")
		}
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, les)
}

func (api *lessonApi) update(ctx echo.Context) error {
	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	les, err := api.deps.LessonSvc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		switch errors.Cause(err) {
		case lesson.ErrNotFound:
			return errHttpNotFound
		case lesson.ErrTeacherNotFound:
			return fail(ctx, "Teacher not found.")
		}
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, les)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	les, err := api.deps.LessonSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}

	if err := api.deps.LessonSvc.Delete(reqCtx, les.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return success(ctx, "Lesson deleted.")
}

func (api *lessonApi) queryStudents(ctx echo.Context) error {
	students, err := api.deps.LessonSvc.Students(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return fail(ctx, "Lesson not found.")
		}
		return errors.Wrap(err, "querying lesson students")
	}
	if students == nil {
		students = []student.Summary{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *lessonApi) addStudent(ctx echo.Context) error {
	err := api.deps.LessonSvc.Enroll(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"))
	switch errors.Cause(err) {
	case nil:
		return success(ctx, "Student added to lesson.")
	case lesson.ErrNotFound:
		return fail(ctx, "Lesson not found.")
	case lesson.ErrStudentNotFound:
		return fail(ctx, "Student not found.")
	case lesson.ErrAlreadyEnrolled:
		return fail(ctx, "Student already in lesson.")
	default:
		return errors.Wrap(err, "enrolling student")
	}
}

func (api *lessonApi) removeStudent(ctx echo.Context) error {
	err := api.deps.LessonSvc.Unenroll(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"))
	switch errors.Cause(err) {
	case nil:
		return success(ctx, "Student removed from lesson.")
	case lesson.ErrNotFound:
		return fail(ctx, "Lesson not found.")
	case lesson.ErrStudentNotFound:
		return fail(ctx, "Student not found.")
	case lesson.ErrNotEnrolled:
		return fail(ctx, "Student not in lesson.")
	default:
		return errors.Wrap(err, "unenrolling student")
	}
}
