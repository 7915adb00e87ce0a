package sqlxrepos

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
)

// summaryRow carries one left-joined student card; all fields are nullable
// since the joined user may be absent.
type summaryRow struct {
	ID          null.String `db:"id"`
	FullName    null.String `db:"full_name"`
	Email       null.String `db:"email"`
	DateOfBirth core.Date   `db:"dob"`
}

func (r summaryRow) summary() *student.Summary {
	if !r.ID.Valid {
		return nil
	}
	return &student.Summary{
		ID:          r.ID.String,
		FullName:    r.FullName.String,
		Email:       r.Email.String,
		DateOfBirth: r.DateOfBirth,
	}
}

// summarySelect returns the select list of a student card for a "user" table
// aliased userAlias joined with its profile aliased profAlias; columns are
// prefixed for scanning into a prefixed summaryRow.
func summarySelect(userAlias, profAlias, prefix string) string {
	return fmt.Sprintf(
		`%[1]s.id AS "%[3]s.id", COALESCE(%[2]s.name, '') || ' ' || COALESCE(%[2]s.surname, '') AS "%[3]s.full_name", `+
			`%[1]s.email AS "%[3]s.email", %[2]s.date_of_birth AS "%[3]s.dob"`,
		userAlias, profAlias, prefix,
	)
}

// summaryJoin left-joins a "user" table and its profile under the given aliases.
func summaryJoin(on, userAlias, profAlias string) string {
	return fmt.Sprintf(
		`LEFT JOIN "user" %[2]s ON %[2]s.id = %[1]s LEFT JOIN profile %[3]s ON %[3]s.user_id = %[2]s.id`,
		on, userAlias, profAlias,
	)
}

func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}
