package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/grade"
	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
	emailsvc "github.com/AhenkERP/studentgradesys/services/email"
	inmemdb "github.com/AhenkERP/studentgradesys/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server      Server
	conf        *core.Config
	db          *inmemdb.DB
	userRepo    user.Repository
	profileRepo student.Repository
	lessonRepo  lesson.Repository
	gradeRepo   grade.Repository
}

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:                   "StudentGradeSys",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		PageSize:                  25,
		MaxPageSize:               100,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := newTestConfig()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	userRepo := inmemdb.NewUserRepository(db)
	profileRepo := inmemdb.NewProfileRepository(db)
	lessonRepo := inmemdb.NewLessonRepository(db)
	gradeRepo := inmemdb.NewGradeRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(db, userRepo, profileRepo, mailSvc, conf)
	studentSvc := student.NewService(profileRepo)
	lessonSvc := lesson.NewService(lessonRepo, userRepo, profileRepo)
	gradeSvc := grade.NewService(gradeRepo, lessonRepo, userRepo, profileRepo)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testLogger{},
		UserSvc:    usrSvc,
		StudentSvc: studentSvc,
		LessonSvc:  lessonSvc,
		GradeSvc:   gradeSvc,
		Validate:   validate,
		Translator: translator,
	})

	return &testApp{
		server:      server,
		conf:        conf,
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		lessonRepo:  lessonRepo,
		gradeRepo:   gradeRepo,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, app *testApp, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(app.conf, usr)
	token, err := GenerateToken(app.conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createTestUser(t *testing.T, app *testApp, uname, email, pwd string, isStaff, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     email,
		IsStaff:   isStaff,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createTestUser() failed: %v", err)
		}
	}
	usr, err := app.userRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createTestUser() failed: %v", err)
	}
	if _, err = app.profileRepo.CreateProfile(context.Background(), student.Profile{
		UserID:    usr.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("createTestUser() failed: %v", err)
	}
	return usr
}

func getTestProfile(t *testing.T, app *testApp, usr user.User) student.Profile {
	t.Helper()
	prof, err := app.profileRepo.GetProfile(context.Background(), student.GetFilter{UserID: usr.ID})
	if err != nil {
		t.Fatalf("getTestProfile() failed: %v", err)
	}
	return prof
}

func createTestLesson(t *testing.T, app *testApp, name string, teacher ...user.User) lesson.Lesson {
	t.Helper()
	now := time.Now().UTC()
	les := lesson.Lesson{
		Name:      null.StringFrom(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(teacher) > 0 {
		les.TeacherID = null.StringFrom(teacher[0].ID)
	}
	les, err := app.lessonRepo.CreateLesson(context.Background(), les)
	if err != nil {
		t.Fatalf("createTestLesson() failed: %v", err)
	}
	return les
}

func createTestGrade(t *testing.T, app *testApp, usr user.User, les lesson.Lesson, mark int) grade.Grade {
	t.Helper()
	now := time.Now().UTC()
	grd := grade.Grade{
		StudentID: null.StringFrom(usr.ID),
		LessonID:  null.StringFrom(les.ID),
		Grade:     null.IntFrom(mark),
		CreatedAt: now,
		UpdatedAt: now,
	}
	grd, err := app.gradeRepo.CreateGrade(context.Background(), grd)
	if err != nil {
		t.Fatalf("createTestGrade() failed: %v", err)
	}
	return grd
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallPage(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = make([]interface{}, 0)
	}
	return marchallObj(t, Page{Count: len(objs), Results: objs})
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
