package user

import (
	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
)

// NewServiceMock returns a Service backed by the provided repositories;
// mailSvc should be a synchronous implementation in tests.
func NewServiceMock(db core.DB, repo Repository, profileRepo student.Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		db:          db,
		repo:        repo,
		profileRepo: profileRepo,
		mailSvc:     mailSvc,
		conf:        conf,
	}
}
