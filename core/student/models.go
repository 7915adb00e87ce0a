package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
)

type (
	// Profile holds a student's personal details. Every user account owns
	// exactly one Profile, created along with the account.
	Profile struct {
		ID             string      `json:"id" db:"id"`
		UserID         string      `json:"user" db:"user_id"`
		Name           null.String `json:"name" db:"name"`
		Surname        null.String `json:"surname" db:"surname"`
		IdentityNumber null.String `json:"identity_number" db:"identity_number"`
		Phone          null.String `json:"phone" db:"phone"`
		Mobile         null.String `json:"mobile" db:"mobile"`
		Country        null.String `json:"country" db:"country"`
		State          null.String `json:"state" db:"state"`
		City           null.String `json:"city" db:"city"`
		Address        null.String `json:"address" db:"address"`
		ZipCode        null.String `json:"zip_code" db:"zip_code"`
		DateOfBirth    core.Date   `json:"dateofbirth" db:"date_of_birth"`
		CreatedAt      time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
		CreatedByID    null.String `json:"-" db:"created_by_id"`
		UpdatedByID    null.String `json:"-" db:"updated_by_id"`

		CreatedBy *Summary `json:"created_by" db:"-"`
		UpdatedBy *Summary `json:"updated_by" db:"-"`
	}

	// Summary is the compact student card embedded in related resources.
	Summary struct {
		ID          string    `json:"id" db:"id"`
		FullName    string    `json:"full_name" db:"full_name"`
		Email       string    `json:"email" db:"email"`
		DateOfBirth core.Date `json:"dateofbirth" db:"date_of_birth"`
	}

	UpdateProfile struct {
		Name           *string    `json:"name" validate:"omitempty,max=80"`
		Surname        *string    `json:"surname" validate:"omitempty,max=60"`
		IdentityNumber *string    `json:"identity_number" validate:"omitempty,max=13"`
		Phone          *string    `json:"phone" validate:"omitempty,max=32"`
		Mobile         *string    `json:"mobile" validate:"omitempty,max=32"`
		Country        *string    `json:"country" validate:"omitempty,max=50"`
		State          *string    `json:"state" validate:"omitempty,max=60"`
		City           *string    `json:"city" validate:"omitempty,max=90"`
		Address        *string    `json:"address" validate:"omitempty,max=100"`
		ZipCode        *string    `json:"zip_code" validate:"omitempty,max=6"`
		DateOfBirth    *core.Date `json:"dateofbirth"`
	}

	QueryFilter struct {
		Search string `query:"search"` // name, surname or owner email

		Limit  int
		Offset int
	}

	GetFilter struct {
		ID     string
		UserID string
	}
)

// OrderableFields lists the columns list endpoints may order by.
var OrderableFields = []string{"name", "surname", "country", "city", "date_of_birth", "created_at", "updated_at"}

// FullName joins Name and Surname with a single space; missing parts
// are rendered empty but the space is kept.
func (p Profile) FullName() string {
	return p.Name.String + " " + p.Surname.String
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
}
