package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core/grade"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type gradeApi struct {
	deps ServerDeps
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gradeApi{deps: deps}

	gg := g.Group("/grades", jwt)

	gg.GET("", api.query)
	gg.GET("/list/student/:id", api.queryByStudent)

	// staff endpoints
	gg.POST("", api.create, staffMiddleware())
	gg.GET("/:id", api.retrieve, staffMiddleware())
	gg.PUT("/:id", api.update, staffMiddleware())
	gg.PATCH("/:id", api.update, staffMiddleware())
	gg.DELETE("/:id", api.destroy, staffMiddleware())
	gg.GET("/list/lesson/:id", api.queryByLesson, staffMiddleware())
	gg.GET("/list/teacher/:id", api.queryByTeacher, staffMiddleware())
}

// Handlers

func (api *gradeApi) query(ctx echo.Context) error {
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, Page{Count: 0, Results: []grade.Grade{}})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, grade.OrderableFields...); err != nil {
		return err
	}
	pagination := new(Pagination)
	pagination.Bind(ctx, api.deps.Conf)
	filter.Limit = pagination.Limit()
	filter.Offset = pagination.Offset()

	reqCtx := ctx.Request().Context()
	count, err := api.deps.GradeSvc.Count(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "counting grades")
	}
	grades, err := api.deps.GradeSvc.Query(reqCtx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, Page{Count: count, Results: grades})
}

// queryByStudent returns a profile's grades to staff or to the profile's owner.
func (api *gradeApi) queryByStudent(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	prof, err := api.deps.StudentSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return fail(ctx, "Student not found")
		}
		return errors.Wrap(err, "finding profile by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStaff && prof.UserID != claims.Subject {
		return fail(ctx, "You are not allowed to view this student grades")
	}

	grades, err := api.deps.GradeSvc.QueryByStudent(reqCtx, prof.UserID)
	if err != nil {
		return errors.Wrap(err, "querying grades by student")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) queryByLesson(ctx echo.Context) error {
	grades, err := api.deps.GradeSvc.QueryByLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrLessonNotFound {
			return fail(ctx, "Lesson not found")
		}
		return errors.Wrap(err, "querying grades by lesson")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) queryByTeacher(ctx echo.Context) error {
	grades, err := api.deps.GradeSvc.QueryByTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrTeacherNotFound {
			return fail(ctx, "Teacher not found")
		}
		return errors.Wrap(err, "querying grades by teacher")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grd, err := api.deps.GradeSvc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		switch errors.Cause(err) {
		case grade.ErrStudentNotFound:
			return fail(ctx, "Student not found")
		case grade.ErrLessonNotFound:
			return fail(ctx, "Lesson not found")
		}
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	grd, err := api.deps.GradeSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding grade by ID")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data grade.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grd, err := api.deps.GradeSvc.Update(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		switch errors.Cause(err) {
		case grade.ErrNotFound:
			return errHttpNotFound
		case grade.ErrStudentNotFound:
			return fail(ctx, "Student not found")
		case grade.ErrLessonNotFound:
			return fail(ctx, "Lesson not found")
		}
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	grd, err := api.deps.GradeSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding grade by ID")
	}

	if err := api.deps.GradeSvc.Delete(reqCtx, grd.ID); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return success(ctx, "Grade deleted successfully")
}
