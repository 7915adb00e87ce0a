package lesson

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
)

type (
	Lesson struct {
		ID          string      `json:"id" db:"id"`
		Name        null.String `json:"name" db:"name"`
		Description null.String `json:"description" db:"description"`
		Period      null.String `json:"period" db:"period"`
		TeacherID   null.String `json:"-" db:"teacher_id"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
		CreatedByID null.String `json:"-" db:"created_by_id"`
		UpdatedByID null.String `json:"-" db:"updated_by_id"`

		Teacher   *student.Summary  `json:"teacher" db:"-"`
		CreatedBy *student.Summary  `json:"created_by" db:"-"`
		UpdatedBy *student.Summary  `json:"updated_by" db:"-"`
		Students  []student.Summary `json:"students" db:"-"`
	}

	NewLesson struct {
		Name        string `json:"name" validate:"omitempty,max=80"`
		Description string `json:"description" validate:"omitempty,max=160"`
		Period      string `json:"period" validate:"omitempty,max=32"`
		Teacher     string `json:"teacher" validate:"omitempty,uuid4"`
	}

	UpdateLesson struct {
		Name        *string `json:"name" validate:"omitempty,max=80"`
		Description *string `json:"description" validate:"omitempty,max=160"`
		Period      *string `json:"period" validate:"omitempty,max=32"`
		Teacher     *string `json:"teacher" validate:"omitempty,uuid4"`
	}

	QueryFilter struct {
		Search string `query:"search"` // name, description or period

		Limit  int
		Offset int
	}
)

// OrderableFields lists the columns list endpoints may order by.
var OrderableFields = []string{"name", "period", "created_at", "updated_at"}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
}
