package inmemdb

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/grade"
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
)

// DB is an in-memory store used in tests. The embedded *sqlx.DB is nil and
// only satisfies core.DBExecutor; repositories never touch it.
type DB struct {
	*sqlx.DB

	mutex       sync.RWMutex
	users       map[string]*user.User
	profiles    map[string]*student.Profile
	lessons     map[string]*lesson.Lesson
	enrollments map[string]map[string]bool // lesson ID -> user ID set
	grades      map[string]*grade.Grade
}

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		users:       make(map[string]*user.User),
		profiles:    make(map[string]*student.Profile),
		lessons:     make(map[string]*lesson.Lesson),
		enrollments: make(map[string]map[string]bool),
		grades:      make(map[string]*grade.Grade),
	}, nil
}

func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (core.Tx, error) {
	return noopTx{db}, nil
}

type noopTx struct {
	*DB
}

func (tx noopTx) Commit() error   { return nil }
func (tx noopTx) Rollback() error { return nil }

// summaryLocked builds the student card of a user; db.mutex must be held.
func (db *DB) summaryLocked(userID string) *student.Summary {
	usr, ok := db.users[userID]
	if !ok {
		return nil
	}
	card := &student.Summary{ID: usr.ID, FullName: " ", Email: usr.Email}
	for _, prof := range db.profiles {
		if prof.UserID == userID {
			card.FullName = prof.FullName()
			card.DateOfBirth = prof.DateOfBirth
			break
		}
	}
	return card
}

// lessonLocked builds a full lesson with resolved cards; db.mutex must be held.
func (db *DB) lessonLocked(les lesson.Lesson) lesson.Lesson {
	if les.TeacherID.Valid {
		les.Teacher = db.summaryLocked(les.TeacherID.String)
	}
	if les.CreatedByID.Valid {
		les.CreatedBy = db.summaryLocked(les.CreatedByID.String)
	}
	if les.UpdatedByID.Valid {
		les.UpdatedBy = db.summaryLocked(les.UpdatedByID.String)
	}
	les.Students = db.lessonStudentsLocked(les.ID)
	return les
}

// lessonStudentsLocked builds the enrolled student cards ordered by email;
// db.mutex must be held.
func (db *DB) lessonStudentsLocked(lessonID string) []student.Summary {
	cards := make([]student.Summary, 0)
	for userID := range db.enrollments[lessonID] {
		if card := db.summaryLocked(userID); card != nil {
			cards = append(cards, *card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Email < cards[j].Email })
	return cards
}
