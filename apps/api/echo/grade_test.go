package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/grade"
)

func Test_gradeApi_query(t *testing.T) {
	app := setup(t)

	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	maths := createTestLesson(t, app, "Maths")
	grd1 := createTestGrade(t, app, hero, maths, 85)
	grd2 := createTestGrade(t, app, hero, maths, 90)

	heroToken := getToken(t, app, hero)

	fetch := func(id string) grade.Grade {
		g, err := app.gradeRepo.GetGrade(context.Background(), id)
		if err != nil {
			t.Fatalf("GetGrade(): %v", err)
		}
		return g
	}
	grd1, grd2 = fetch(grd1.ID), fetch(grd2.ID)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/grades", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all (any authed)", path: "/v1/grades", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 2, Results: []grade.Grade{grd1, grd2}}),
		},
		{
			name: "pagination", path: "/v1/grades?page=2&page_size=1", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 2, Results: []grade.Grade{grd2}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_gradeApi_create(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	heroProf := getTestProfile(t, app, hero)
	maths := createTestLesson(t, app, "Maths")

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"
	mark := 85
	date := core.DateFrom(2026, time.June, 15)

	newGrade := func(studentID, lessonID string) []byte {
		return marchallObj(t, grade.NewGrade{Student: studentID, Lesson: lessonID, Grade: &mark, Date: &date})
	}

	tests := []httpTest{
		{
			name: "Staff required", token: getToken(t, app, hero), body: newGrade(heroProf.ID, maths.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown student", token: staffToken, body: newGrade(unknownID, maths.ID),
			wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Student not found"}),
		},
		{
			name: "unknown lesson", token: staffToken, body: newGrade(heroProf.ID, unknownID),
			wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Lesson not found"}),
		},
		{name: "created", token: staffToken, body: newGrade(heroProf.ID, maths.ID), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/grades"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var grd grade.Grade
				if err := json.Unmarshal(rec.Body.Bytes(), &grd); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				// the profile id resolves to its owner user
				if grd.Student == nil || grd.Student.ID != hero.ID {
					t.Errorf("failed! student not resolved: %v", rec.Body.String())
				}
				if grd.CreatedBy == nil || grd.CreatedBy.ID != staff.ID {
					t.Errorf("failed! created_by not stamped: %v", rec.Body.String())
				}
				if grd.UpdatedBy == nil || grd.UpdatedBy.ID != staff.ID {
					t.Errorf("failed! updated_by not stamped: %v", rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_gradeApi_updateDestroy(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	maths := createTestLesson(t, app, "Maths")
	grd := createTestGrade(t, app, hero, maths, 85)

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, map[string]int{"grade": 95})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/grades/"+grd.ID, staffToken, body)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated grade.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.Grade.Int != 95 {
			t.Errorf("failed! grade not updated: %v", rec.Body.String())
		}
	})
	t.Run("update: unknown student", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"student": unknownID})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/grades/"+grd.ID, staffToken, body)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Student not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("destroy: unknown grade", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/grades/"+unknownID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/grades/"+grd.ID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: true, Message: "Grade deleted successfully"})}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_gradeApi_derivedLists(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	teacher := createTestUser(t, app, "teacher", "teacher@test.tr", "", false, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	king := createTestUser(t, app, "king", "king@test.tr", "", false, true)
	heroProf := getTestProfile(t, app, hero)

	maths := createTestLesson(t, app, "Maths", teacher)
	arts := createTestLesson(t, app, "Arts")
	createTestGrade(t, app, hero, maths, 85)
	createTestGrade(t, app, king, arts, 60)

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"

	countOf := func(t *testing.T, body []byte) int {
		t.Helper()
		var grades []json.RawMessage
		if err := json.Unmarshal(body, &grades); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return len(grades)
	}

	t.Run("by student: unknown profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/student/"+unknownID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Student not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("by student: not the owner", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/student/"+heroProf.ID, getToken(t, app, king))
		app.server.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, Result{Success: false, Message: "You are not allowed to view this student grades"}),
		}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("by student: owner", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/student/"+heroProf.ID, getToken(t, app, hero))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		if n := countOf(t, rec.Body.Bytes()); n != 1 {
			t.Errorf("failed! grades = %v; want 1", n)
		}
	})
	t.Run("by student: staff", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/student/"+heroProf.ID, staffToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		if n := countOf(t, rec.Body.Bytes()); n != 1 {
			t.Errorf("failed! grades = %v; want 1", n)
		}
	})
	t.Run("by lesson: unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/lesson/"+unknownID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Lesson not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("by lesson: staff required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/lesson/"+maths.ID, getToken(t, app, hero))
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("by lesson", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/lesson/"+maths.ID, staffToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		if n := countOf(t, rec.Body.Bytes()); n != 1 {
			t.Errorf("failed! grades = %v; want 1", n)
		}
	})
	t.Run("by teacher: unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/teacher/"+unknownID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Teacher not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("by teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grades/list/teacher/"+teacher.ID, staffToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		if n := countOf(t, rec.Body.Bytes()); n != 1 {
			t.Errorf("failed! grades = %v; want 1", n)
		}
	})
}
