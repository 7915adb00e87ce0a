package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
)

type studentApi struct {
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{deps: deps}

	sg := g.Group("/students", jwt)

	sg.GET("", api.query)
	sg.GET("/self", api.retrieveOwn)
	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/lessons", api.queryLessons)

	// staff endpoints
	sg.PUT("/:id", api.update, staffMiddleware())
	sg.PATCH("/:id", api.update, staffMiddleware())
	sg.GET("/user/:id", api.retrieveByUser, staffMiddleware())
	sg.PUT("/user/:id", api.updateByUser, staffMiddleware())
	sg.PATCH("/user/:id", api.updateByUser, staffMiddleware())
	sg.DELETE("/user/:id", api.destroyByUser, staffMiddleware())
	sg.POST("/:id/lessons/:lessonId", api.addLesson, staffMiddleware())
	sg.DELETE("/:id/lessons/:lessonId", api.removeLesson, staffMiddleware())
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, Page{Count: 0, Results: []student.Profile{}})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, student.OrderableFields...); err != nil {
		return err
	}
	pagination := new(Pagination)
	pagination.Bind(ctx, api.deps.Conf)
	filter.Limit = pagination.Limit()
	filter.Offset = pagination.Offset()

	reqCtx := ctx.Request().Context()
	count, err := api.deps.StudentSvc.Count(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "counting profiles")
	}
	profiles, err := api.deps.StudentSvc.Query(reqCtx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []student.Profile{}
	}
	return ctx.JSON(http.StatusOK, Page{Count: count, Results: profiles})
}

// retrieveOwn returns the acting user's own profile.
func (api *studentApi) retrieveOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prof, err := api.deps.StudentSvc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding profile by user ID")
	}
	return ctx.JSON(http.StatusOK, prof)
}

// retrieve returns a profile to staff or to its owner; anyone else gets 401.
func (api *studentApi) retrieve(ctx echo.Context) error {
	prof, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding profile by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStaff && prof.UserID != claims.Subject {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prof, err := api.deps.StudentSvc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *studentApi) retrieveByUser(ctx echo.Context) error {
	prof, err := api.deps.StudentSvc.GetByUserID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding profile by user ID")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *studentApi) updateByUser(ctx echo.Context) error {
	var data student.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prof, err := api.deps.StudentSvc.UpdateByUserID(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

// destroyByUser deletes the owning User; the profile cascades with it.
func (api *studentApi) destroyByUser(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err := api.deps.UserSvc.Delete(reqCtx, usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) queryLessons(ctx echo.Context) error {
	lessons, err := api.deps.LessonSvc.QueryByStudentProfile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == lesson.ErrStudentNotFound {
			return fail(ctx, "Student not found.")
		}
		return errors.Wrap(err, "querying lessons by student")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *studentApi) addLesson(ctx echo.Context) error {
	err := api.deps.LessonSvc.EnrollProfile(ctx.Request().Context(), ctx.Param("id"), ctx.Param("lessonId"))
	switch errors.Cause(err) {
	case nil:
		return success(ctx, "Lesson added to student.")
	case lesson.ErrStudentNotFound:
		return fail(ctx, "Student not found.")
	case lesson.ErrNotFound:
		return fail(ctx, "Lesson not found.")
	case lesson.ErrAlreadyEnrolled:
		return fail(ctx, "Student already added to lesson.")
	default:
		return errors.Wrap(err, "enrolling student")
	}
}

func (api *studentApi) removeLesson(ctx echo.Context) error {
	err := api.deps.LessonSvc.UnenrollProfile(ctx.Request().Context(), ctx.Param("id"), ctx.Param("lessonId"))
	switch errors.Cause(err) {
	case nil:
		return success(ctx, "Lesson removed from student.")
	case lesson.ErrStudentNotFound:
		return fail(ctx, "Student not found.")
	case lesson.ErrNotFound:
		return fail(ctx, "Lesson not found.")
	case lesson.ErrNotEnrolled:
		return fail(ctx, "Student is not added to lesson.")
	default:
		return errors.Wrap(err, "unenrolling student")
	}
}
