package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
)

const defaultCountry = "Türkiye"

type profileRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(exec core.DBExecutor) *profileRepository {
	return &profileRepository{exec: exec}
}

type profileRow struct {
	student.Profile
	CB summaryRow `db:"cb"`
	UB summaryRow `db:"ub"`
}

func (r profileRow) profile() student.Profile {
	prof := r.Profile
	prof.CreatedBy = r.CB.summary()
	prof.UpdatedBy = r.UB.summary()
	return prof
}

func (repo profileRepository) baseSelect() string {
	return fmt.Sprintf(
		`SELECT p.*, %s, %s FROM profile p %s %s`,
		summarySelect("cbu", "cbp", "cb"),
		summarySelect("ubu", "ubp", "ub"),
		summaryJoin("p.created_by_id", "cbu", "cbp"),
		summaryJoin("p.updated_by_id", "ubu", "ubp"),
	)
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo profileRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) CreateProfile(ctx context.Context, prof student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	prof.ID = uuid.New().String()
	if !prof.Country.Valid {
		prof.Country = null.StringFrom(defaultCountry)
	}
	const query = `
INSERT INTO profile (id, user_id, name, surname, identity_number, phone, mobile, country, state, city, address, zip_code,
                     date_of_birth, created_at, updated_at, created_by_id, updated_by_id)
VALUES (:id, :user_id, :name, :surname, :identity_number, :phone, :mobile, :country, :state, :city, :address, :zip_code,
        :date_of_birth, :created_at, :updated_at, :created_by_id, :updated_by_id)`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, prof); err != nil {
		return student.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return prof, nil
}

func (repo profileRepository) QueryProfiles(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Profile, error) {
	query := repo.baseSelect() + ` LEFT JOIN "user" o ON o.id = p.user_id`

	var args []interface{}
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` WHERE (p.name ILIKE ? OR p.surname ILIKE ? OR o.email ILIKE ?)`
		args = append(args, val, val, val)
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, "p."+ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	} else {
		query += ` ORDER BY p.created_at`
	}
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)
	}

	exe := getExec(repo.exec, exec)
	var rows []profileRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	profs := make([]student.Profile, 0, len(rows))
	for _, row := range rows {
		profs = append(profs, row.profile())
	}
	return profs, nil
}

func (repo profileRepository) CountProfiles(ctx context.Context, filter *student.QueryFilter, exec ...core.DBExecutor) (int, error) {
	query := `SELECT COUNT(*) FROM profile p LEFT JOIN "user" o ON o.id = p.user_id`
	var args []interface{}
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		query += ` WHERE (p.name ILIKE ? OR p.surname ILIKE ? OR o.email ILIKE ?)`
		args = append(args, val, val, val)
	}

	exe := getExec(repo.exec, exec)
	var count int
	if err := exe.GetContext(ctx, &count, exe.Rebind(query), args...); err != nil {
		return 0, errors.Wrap(err, "counting profiles")
	}
	return count, nil
}

func (repo profileRepository) GetProfile(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Profile, error) {
	var cond, id string
	switch {
	case filter.ID != "":
		cond, id = `p.id = ?`, filter.ID
	case filter.UserID != "":
		cond, id = `p.user_id = ?`, filter.UserID
	default:
		return student.Profile{}, student.ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return student.Profile{}, student.ErrNotFound
	}

	exe := getExec(repo.exec, exec)
	var row profileRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(repo.baseSelect()+` WHERE `+cond), id); err != nil {
		return student.Profile{}, repo.trapNoRowsErr(err, "finding profile")
	}
	return row.profile(), nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, prof student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	const query = `
UPDATE profile
SET name            = :name,
    surname         = :surname,
    identity_number = :identity_number,
    phone           = :phone,
    mobile          = :mobile,
    country         = :country,
    state           = :state,
    city            = :city,
    address         = :address,
    zip_code        = :zip_code,
    date_of_birth   = :date_of_birth,
    updated_at      = :updated_at,
    updated_by_id   = :updated_by_id
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, prof); err != nil {
		return student.Profile{}, errors.Wrap(err, "updating profile")
	}
	return prof, nil
}
