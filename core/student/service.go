package student

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateProfile(ctx context.Context, prof Profile, exec ...core.DBExecutor) (Profile, error)
		// QueryProfiles applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Profile.Name,
		// Profile.Surname or the owner's email.
		QueryProfiles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Profile, error)
		CountProfiles(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		GetProfile(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile, exec ...core.DBExecutor) (Profile, error)
	}

	Service interface {
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error)
		Count(ctx context.Context, filter *QueryFilter) (int, error)
		GetByID(ctx context.Context, id string) (Profile, error)
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		Update(ctx context.Context, id string, up UpdateProfile, actorID string) (Profile, error)
		UpdateByUserID(ctx context.Context, userID string, up UpdateProfile, actorID string) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error) {
	return svc.repo.QueryProfiles(ctx, filter, ordering)
}

func (svc *service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountProfiles(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{UserID: userID})
}

func (svc *service) Update(ctx context.Context, id string, up UpdateProfile, actorID string) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: id})
	if err != nil {
		return Profile{}, err
	}
	return svc.update(ctx, prof, up, actorID)
}

func (svc *service) UpdateByUserID(ctx context.Context, userID string, up UpdateProfile, actorID string) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{UserID: userID})
	if err != nil {
		return Profile{}, err
	}
	return svc.update(ctx, prof, up, actorID)
}

// update applies only the provided fields and stamps the acting user.
func (svc *service) update(ctx context.Context, prof Profile, up UpdateProfile, actorID string) (Profile, error) {
	if up.Name != nil {
		prof.Name = null.StringFrom(*up.Name)
	}
	if up.Surname != nil {
		prof.Surname = null.StringFrom(*up.Surname)
	}
	if up.IdentityNumber != nil {
		prof.IdentityNumber = null.StringFrom(*up.IdentityNumber)
	}
	if up.Phone != nil {
		prof.Phone = null.StringFrom(*up.Phone)
	}
	if up.Mobile != nil {
		prof.Mobile = null.StringFrom(*up.Mobile)
	}
	if up.Country != nil {
		prof.Country = null.StringFrom(*up.Country)
	}
	if up.State != nil {
		prof.State = null.StringFrom(*up.State)
	}
	if up.City != nil {
		prof.City = null.StringFrom(*up.City)
	}
	if up.Address != nil {
		prof.Address = null.StringFrom(*up.Address)
	}
	if up.ZipCode != nil {
		prof.ZipCode = null.StringFrom(*up.ZipCode)
	}
	if up.DateOfBirth != nil {
		prof.DateOfBirth = *up.DateOfBirth
	}
	prof.UpdatedByID = null.StringFrom(actorID)
	prof.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}
