package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/AhenkERP/studentgradesys/core/student"
)

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	king := createTestUser(t, app, "king", "king@test.tr", "", false, true)

	heroToken := getToken(t, app, hero)

	staffProf := getTestProfile(t, app, staff)
	heroProf := getTestProfile(t, app, hero)
	kingProf := getTestProfile(t, app, king)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all (any authed)", path: "/v1/students", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 3, Results: []student.Profile{staffProf, heroProf, kingProf}}),
		},
		{
			name: "pagination", path: "/v1/students?page=2&page_size=2", token: heroToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, Page{Count: 3, Results: []student.Profile{kingProf}}),
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

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	king := createTestUser(t, app, "king", "king@test.tr", "", false, true)

	heroProf := getTestProfile(t, app, hero)
	kingProf := getTestProfile(t, app, king)

	tests := []httpTest{
		{
			name: "unknown profile", path: "/v1/students/a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5", token: getToken(t, app, staff),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "own profile", path: "/v1/students/" + heroProf.ID, token: getToken(t, app, hero),
			wantCode: http.StatusOK, wantData: marchallObj(t, heroProf),
		},
		{
			name: "staff can view any profile", path: "/v1/students/" + heroProf.ID, token: getToken(t, app, staff),
			wantCode: http.StatusOK, wantData: marchallObj(t, heroProf),
		},
		{
			name: "not the owner", path: "/v1/students/" + kingProf.ID, token: getToken(t, app, hero),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name: "own profile via /self", path: "/v1/students/self", token: getToken(t, app, hero),
			wantCode: http.StatusOK, wantData: marchallObj(t, heroProf),
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

func Test_studentApi_update(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	heroProf := getTestProfile(t, app, hero)

	staffToken := getToken(t, app, staff)
	body := marchallObj(t, map[string]string{"name": "Hero", "surname": "Kid"})

	tests := []httpTest{
		{
			name: "Staff required", method: http.MethodPatch, path: "/v1/students/" + heroProf.ID, token: getToken(t, app, hero),
			body: body, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "name too long", method: http.MethodPatch, path: "/v1/students/" + heroProf.ID, token: staffToken,
			body:     marchallObj(t, map[string]string{"name": string(make([]byte, 81))}),
			wantCode: http.StatusBadRequest,
		},
		{name: "update by profile id", method: http.MethodPatch, path: "/v1/students/" + heroProf.ID, token: staffToken, body: body},
		{name: "update by user id", method: http.MethodPut, path: "/v1/students/user/" + hero.ID, token: staffToken, body: body},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == 0 {
				if rec.Code != http.StatusOK {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
				}
				var prof student.Profile
				if err := json.Unmarshal(rec.Body.Bytes(), &prof); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if prof.Name.String != "Hero" || prof.Surname.String != "Kid" {
					t.Errorf("failed! profile not updated: %v", rec.Body.String())
				}
				return
			}
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	// updated_by is stamped with the acting user
	prof, err := app.profileRepo.GetProfile(context.Background(), student.GetFilter{ID: heroProf.ID})
	if err != nil {
		t.Fatalf("GetProfile(): %v", err)
	}
	if prof.UpdatedByID.String != staff.ID {
		t.Errorf("UpdatedByID = %v; want %v", prof.UpdatedByID.String, staff.ID)
	}
}

func Test_studentApi_destroyByUser(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)

	tests := []httpTest{
		{
			name: "unknown user", path: "/v1/students/user/a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "deleted", path: "/v1/students/user/" + hero.ID, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete
		tt.token = getToken(t, app, staff)

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
		})
	}

	// the user and its profile are both gone
	if _, err := app.profileRepo.GetProfile(context.Background(), student.GetFilter{UserID: hero.ID}); err == nil {
		t.Error("profile still exists after user deletion")
	}
}

func Test_studentApi_lessons(t *testing.T) {
	app := setup(t)

	staff := createTestUser(t, app, "admin", "admin@test.tr", "", true, true)
	hero := createTestUser(t, app, "hero", "hero@test.tr", "", false, true)
	heroProf := getTestProfile(t, app, hero)
	maths := createTestLesson(t, app, "Maths")

	staffToken := getToken(t, app, staff)
	unknownID := "a2cd1a55-55a4-4f35-a073-a1f1f9b1b1a5"

	lessonsPath := func(profID string) string { return "/v1/students/" + profID + "/lessons" }
	enrollPath := func(profID, lessonID string) string { return "/v1/students/" + profID + "/lessons/" + lessonID }

	tests := []httpTest{
		{
			name: "list lessons: unknown student", method: http.MethodGet, path: lessonsPath(unknownID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student not found."}),
		},
		{
			name: "add: unknown student", method: http.MethodPost, path: enrollPath(unknownID, maths.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student not found."}),
		},
		{
			name: "add: unknown lesson", method: http.MethodPost, path: enrollPath(heroProf.ID, unknownID),
			wantData: marchallObj(t, Result{Success: false, Message: "Lesson not found."}),
		},
		{
			name: "add", method: http.MethodPost, path: enrollPath(heroProf.ID, maths.ID),
			wantData: marchallObj(t, Result{Success: true, Message: "Lesson added to student."}),
		},
		{
			name: "add: already enrolled", method: http.MethodPost, path: enrollPath(heroProf.ID, maths.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student already added to lesson."}),
		},
		{name: "list lessons", method: http.MethodGet, path: lessonsPath(heroProf.ID), extra: "listLessons"},
		{
			name: "remove", method: http.MethodDelete, path: enrollPath(heroProf.ID, maths.ID),
			wantData: marchallObj(t, Result{Success: true, Message: "Lesson removed from student."}),
		},
		{
			name: "remove: not enrolled", method: http.MethodDelete, path: enrollPath(heroProf.ID, maths.ID),
			wantData: marchallObj(t, Result{Success: false, Message: "Student is not added to lesson."}),
		},
	}
	for _, tt := range tests {
		tt.token = staffToken
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.extra == "listLessons" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var lessons []json.RawMessage
				if err := json.Unmarshal(rec.Body.Bytes(), &lessons); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if len(lessons) != 1 {
					t.Errorf("failed! lessons = %v; want 1", len(lessons))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
