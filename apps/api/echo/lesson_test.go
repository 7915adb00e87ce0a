package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/AhenkERP/studentgradesys/core/lesson"
	"github.com/AhenkERP/studentgradesys/core/student"
)

func Test_lessonApi_query(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	maths := createTestLesson(t, app, "Maths", staff)
	arts := createTestLesson(t, app, "Arts")

	heroToken := getToken(t, app, hero)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/lessons", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all (any authed)", path: "/v1/lessons", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 2, Results: []lesson.Lesson{maths, arts}}),
		},
		{
			name: "ordering by unknown column", path: "/v1/lessons?ordering=teacher_id", token: heroToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"ordering": "invalid ordering field"}),
		},
		{
			name: "search", path: "/v1/lessons?search=mat", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 1, Results: []lesson.Lesson{maths}}),
		},
		{
			name: "retrieve", path: "/v1/lessons/" + maths.ID, token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, maths),
		},
		{
			name: "retrieve unknown", path: "/v1/lessons/a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5", token: heroToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
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

func Test_lessonApi_createUpdateDestroy(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	teacher := createTestUser(t, app, "teacher", "teacher@test.tr", "", false, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"

	// create
	createTests := []httpTest{
		{
			name: "Staff required", token: getToken(t, app, hero), body: marchallObj(t, lesson.NewLesson{Name: "Maths"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown teacher", token: staffToken, body: marchallObj(t, lesson.NewLesson{Name: "Maths", Teacher: unknownID}),
			wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Teacher not found."}),
		},
		{
			name: "created", token: staffToken, body: marchallObj(t, lesson.NewLesson{Name: "Maths", Period: "2026/1", Teacher: teacher.ID}),
			wantCode: http.StatusCreated,
		},
	}
	var created lesson.Lesson
	for _, tt := range createTests {
		tt.method = http.MethodPost
		tt.path = "/v1/lessons"

		t.Run("create: "+tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if created.Teacher == nil || created.Teacher.ID != teacher.ID {
					t.Errorf("failed! teacher not resolved: %v", rec.Body.String())
				}
				if created.CreatedBy == nil || created.CreatedBy.ID != staff.ID {
					t.Errorf("failed! created_by not stamped: %v", rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// update
	t.Run("update: unknown teacher", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"teacher": unknownID})
		req, rec := newAuthRequest(http.MethodPatch, "/v1/lessons/"+created.ID, staffToken, body)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: false, Message: "Teacher not found."})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"description": "Numbers and stuff"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/lessons/"+created.ID, staffToken, body)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var les lesson.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &les); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if les.Description.String != "Numbers and stuff" {
			t.Errorf("failed! lesson not updated: %v", rec.Body.String())
		}
		if les.UpdatedBy == nil || les.UpdatedBy.ID != staff.ID {
			t.Errorf("failed! updated_by not stamped: %v", rec.Body.String())
		}
	})

	// destroy
	t.Run("destroy: unknown lesson", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/lessons/"+unknownID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/lessons/"+created.ID, staffToken)
		app.server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, Result{Success: true, Message: "Lesson deleted."})}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_lessonApi_students(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	maths := createTestLesson(t, app, "Maths")

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"

	studentsPath := func(lessonID string) string { return "/v1/lessons/" + lessonID + "/students" }
	enrollPath := func(lessonID, userID string) string { return "/v1/lessons/" + lessonID + "/students/" + userID }

	tests := []httpTest{
		{
			name: "list students: unknown lesson", method: http.MethodGet, path: studentsPath(unknownID),
			wantData: marchallObj(t, Result{Success: false, Message: "Lesson not found."}),
		},
		{
			name: "list students: empty", method: http.MethodGet, path: studentsPath(maths.ID),
			wantData: marchallObj(t, []student.Summary{}),
		},
		{
			name: "add: unknown lesson", method: http.MethodPost, path: enrollPath(unknownID, hero.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Lesson not found."}),
		},
		{
			name: "add: unknown student", method: http.MethodPost, path: enrollPath(maths.ID, unknownID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student not found."}),
		},
		{
			name: "add", method: http.MethodPost, path: enrollPath(maths.ID, hero.ID),
			wantData: marchallObj(t, Result{Success: true, Message: "Student added to lesson."}),
		},
		{
			name: "add: already in lesson", method: http.MethodPost, path: enrollPath(maths.ID, hero.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student already in lesson."}),
		},
		{name: "list students", method: http.MethodGet, path: studentsPath(maths.ID), extra: "listStudents"},
		{
			name: "remove", method: http.MethodDelete, path: enrollPath(maths.ID, hero.ID),
			wantData: marchallObj(t, Result{Success: true, Message: "Student removed from lesson."}),
		},
		{
			name: "remove: not in lesson", method: http.MethodDelete, path: enrollPath(maths.ID, hero.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student not in lesson."}),
		},
	}
	for _, tt := range tests {
		tt.token = staffToken
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.extra == "listStudents" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var students []student.Summary
				if err := json.Unmarshal(rec.Body.Bytes(), &students); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if len(students) != 1 || students[0].ID != hero.ID {
					t.Errorf("failed! students = %v", rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
