package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
)

const defaultCountry = "Türkiye"

type profileRepository struct {
	db *DB
}

var _ student.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

// buildLocked resolves the audit cards; db.mutex must be held.
func (repo *profileRepository) buildLocked(prof student.Profile) student.Profile {
	if prof.CreatedByID.Valid {
		prof.CreatedBy = repo.db.summaryLocked(prof.CreatedByID.String)
	}
	if prof.UpdatedByID.Valid {
		prof.UpdatedBy = repo.db.summaryLocked(prof.UpdatedByID.String)
	}
	return prof
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prof.ID = uuid.New().String()
	if !prof.Country.Valid {
		prof.Country = null.StringFrom(defaultCountry)
	}
	repo.db.profiles[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) match(prof student.Profile, filter *student.QueryFilter) bool {
	if filter == nil || filter.Search == "" {
		return true
	}
	val := strings.ToLower(filter.Search)
	if strings.Contains(strings.ToLower(prof.Name.String), val) ||
		strings.Contains(strings.ToLower(prof.Surname.String), val) {
		return true
	}
	if usr, ok := repo.db.users[prof.UserID]; ok {
		return strings.Contains(strings.ToLower(usr.Email), val)
	}
	return false
}

func (repo *profileRepository) queryLocked(filter *student.QueryFilter) []student.Profile {
	profs := make([]student.Profile, 0, len(repo.db.profiles))
	for _, prof := range repo.db.profiles {
		if repo.match(*prof, filter) {
			profs = append(profs, repo.buildLocked(*prof))
		}
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].CreatedAt.Before(profs[j].CreatedAt) })
	return profs
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	profs := repo.queryLocked(filter)
	if filter != nil && filter.Limit > 0 {
		profs = paginate(profs, filter.Limit, filter.Offset)
	}
	return profs, nil
}

func (repo *profileRepository) CountProfiles(ctx context.Context, filter *student.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.queryLocked(filter)), nil
}

func (repo *profileRepository) GetProfile(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if prof, ok := repo.db.profiles[filter.ID]; ok {
			return repo.buildLocked(*prof), nil
		}
		return student.Profile{}, student.ErrNotFound
	}
	if filter.UserID != "" {
		for _, prof := range repo.db.profiles {
			if prof.UserID == filter.UserID {
				return repo.buildLocked(*prof), nil
			}
		}
	}
	return student.Profile{}, student.ErrNotFound
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof student.Profile, exec ...core.DBExecutor) (student.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.profiles[prof.ID]; !ok {
		return student.Profile{}, student.ErrNotFound
	}
	stored := prof
	stored.CreatedBy, stored.UpdatedBy = nil, nil
	repo.db.profiles[prof.ID] = &stored
	return repo.buildLocked(stored), nil
}
