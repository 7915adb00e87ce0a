package grade

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type (
	Grade struct {
		ID          string      `json:"id" db:"id"`
		StudentID   null.String `json:"-" db:"student_id"`
		LessonID    null.String `json:"-" db:"lesson_id"`
		Grade       null.Int    `json:"grade" db:"grade"`
		Date        core.Date   `json:"date" db:"date"`
		Description null.String `json:"description" db:"description"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
		CreatedByID null.String `json:"-" db:"created_by_id"`
		UpdatedByID null.String `json:"-" db:"updated_by_id"`

		Student   *student.Summary `json:"student" db:"-"`
		Lesson    *lesson.Lesson   `json:"lesson" db:"-"`
		CreatedBy *student.Summary `json:"created_by" db:"-"`
		UpdatedBy *student.Summary `json:"updated_by" db:"-"`
	}

	// NewGrade.Student is a student profile ID; the grade is recorded
	// against the profile's owner account.
	NewGrade struct {
		Student     string     `json:"student" validate:"omitempty,uuid4"`
		Lesson      string     `json:"lesson" validate:"omitempty,uuid4"`
		Grade       *int       `json:"grade"`
		Date        *core.Date `json:"date"`
		Description string     `json:"description" validate:"omitempty,max=160"`
	}

	UpdateGrade struct {
		Student     *string    `json:"student" validate:"omitempty,uuid4"`
		Lesson      *string    `json:"lesson" validate:"omitempty,uuid4"`
		Grade       *int       `json:"grade"`
		Date        *core.Date `json:"date"`
		Description *string    `json:"description" validate:"omitempty,max=160"`
	}

	QueryFilter struct {
		Search string    `query:"search"` // lesson name or description
		Date   core.Date `query:"date"`

		Limit  int
		Offset int
	}
)

// OrderableFields lists the columns list endpoints may order by.
var OrderableFields = []string{"grade", "date", "created_at", "updated_at"}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
}
