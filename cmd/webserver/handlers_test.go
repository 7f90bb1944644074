package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"openlearnhub"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletion struct {
	completeText   string
	completeErr    error
	recommendation string
}

func (f *fakeCompletion) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	return f.completeText, f.completeErr
}

func (f *fakeCompletion) Recommend(ctx context.Context, userInput string) string {
	if f.recommendation == "" {
		return openlearnhub.CompletionUnavailable
	}
	return f.recommendation
}

type fakeVideos struct {
	videos []openlearnhub.Video
	err    error
}

func (f *fakeVideos) SearchCourseVideos(ctx context.Context, course string) ([]openlearnhub.Video, error) {
	return f.videos, f.err
}

func newTestServer(t *testing.T, completions completionAPI) (*Server, *mux.Router) {
	t.Helper()

	db, err := openlearnhub.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.CloseDB() })
	require.NoError(t, db.CreateTables())

	tokens, err := openlearnhub.NewTokenService("test-secret")
	require.NoError(t, err)

	if completions == nil {
		completions = &fakeCompletion{}
	}

	s := &Server{
		db:          db,
		identity:    openlearnhub.NewIdentityGateway(db, openlearnhub.NewFederatedVerifier("")),
		tokens:      tokens,
		completions: completions,
		videos:      &fakeVideos{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/signup", s.handleSignup).Methods("POST")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/recommend-courses", s.handleRecommendCourses).Methods("POST")
	r.HandleFunc("/generate-quiz", s.handleGenerateQuiz).Methods("POST")
	r.HandleFunc("/submit-quiz", s.handleSubmitQuiz).Methods("POST")
	r.HandleFunc("/quiz-results/{uid}", s.handleQuizResults).Methods("GET")
	r.HandleFunc("/api/youtube/videos", s.handleCourseVideos).Methods("GET")
	r.Handle("/profile", tokens.RequireAuth(http.HandlerFunc(s.handleProfile))).Methods("GET")
	return s, r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSignupPasswordMismatch(t *testing.T) {
	s, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/signup",
		`{"fullName":"Ada","username":"ada","email":"ada@example.com","password":"one","confirmPassword":"two"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", decodeBody(t, rec)["error"])

	// No account was created.
	_, err := s.identity.FindByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, openlearnhub.ErrUserNotFound)
}

func TestSignupMissingFields(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/signup", `{"email":"ada@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decodeBody(t, rec)["error"])
}

func TestSignupThenLogin(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/signup",
		`{"fullName":"Ada Lovelace","username":"ada","email":"ada@example.com","password":"pw","confirmPassword":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["uid"])

	rec = doJSON(t, r, "POST", "/login", `{"email":"ada@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body = decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Ada Lovelace", user["fullName"])
}

func TestLoginUnknownEmail(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/login", `{"email":"ghost@example.com","password":"pw"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["error"])
}

func TestLoginMissingFields(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/login", `{"email":"ada@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password are required", decodeBody(t, rec)["error"])
}

func TestProfileRequiresToken(t *testing.T) {
	_, r := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/profile", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileWithToken(t *testing.T) {
	s, r := newTestServer(t, nil)

	uid, err := s.identity.Signup(context.Background(), "Ada Lovelace", "ada", "ada@example.com", "pw")
	require.NoError(t, err)
	token, err := s.tokens.Issue(uid, loginTokenTTL)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Welcome to your profile!", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, uid, user["uid"])
}

func TestGenerateQuizFromWrappedCompletion(t *testing.T) {
	fake := &fakeCompletion{
		completeText: `Sure! [ {"question":"Q1","options":["A","B","C","D"],"answer":"A"} ]`,
	}
	_, r := newTestServer(t, fake)

	rec := doJSON(t, r, "POST", "/generate-quiz", `{"videoTitle":"Intro to Go","topic":"golang"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	quiz := body["quiz"].([]interface{})
	require.Len(t, quiz, 1)
	q := quiz[0].(map[string]interface{})
	assert.Equal(t, "Q1", q["question"])
	assert.Equal(t, "A", q["answer"])
}

func TestGenerateQuizMissingTitle(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/generate-quiz", `{"topic":"golang"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Video title is required", decodeBody(t, rec)["error"])
}

func TestGenerateQuizExtractionFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no array", "I cannot help with that.", "AI returned invalid quiz format."},
		{"malformed json", `[ {"question": "Q1", options: ["A","B","C","D"], "answer": "A"} ]`, "AI returned malformed JSON."},
		{"empty", "", "AI returned no quiz content."},
		{"invalid question", `[ {"question":"Q1","options":["A","B"],"answer":"A"} ]`, "AI returned an invalid quiz question."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newTestServer(t, &fakeCompletion{completeText: tt.text})

			rec := doJSON(t, r, "POST", "/generate-quiz", `{"videoTitle":"Intro to Go"}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}
}

func TestSubmitQuizAndFetchResults(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/submit-quiz",
		`{"uid":"user-1","videoId":"vid-1","score":8,"total":10,"difficulty":"beginner"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Quiz submitted successfully!", decodeBody(t, rec)["message"])

	rec = doJSON(t, r, "GET", "/quiz-results/user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "vid-1", results[0]["videoId"])
	assert.Equal(t, float64(8), results[0]["score"])
	assert.Equal(t, float64(10), results[0]["total"])
}

func TestSubmitQuizIncomplete(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/submit-quiz", `{"uid":"user-1","score":8}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incomplete quiz submission.", decodeBody(t, rec)["error"])
}

func TestSubmitQuizZeroScoreAccepted(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/submit-quiz",
		`{"uid":"user-1","videoId":"vid-1","score":0,"total":10}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitQuizScoreAboveTotalRejected(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/submit-quiz",
		`{"uid":"user-1","videoId":"vid-1","score":11,"total":10}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quiz score is out of range.", decodeBody(t, rec)["error"])
}

func TestQuizResultsEmptyList(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "GET", "/quiz-results/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestRecommendCourses(t *testing.T) {
	_, r := newTestServer(t, &fakeCompletion{recommendation: "Try the Tour of Go."})

	rec := doJSON(t, r, "POST", "/recommend-courses", `{"userInput":"I want to learn Go"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Try the Tour of Go.", decodeBody(t, rec)["recommendation"])
}

func TestCourseVideos(t *testing.T) {
	s, r := newTestServer(t, nil)
	s.videos = &fakeVideos{videos: []openlearnhub.Video{
		{Title: "Go Crash Course", VideoID: "abc123xyz00"},
	}}

	rec := doJSON(t, r, "GET", "/api/youtube/videos?course=golang", "")

	require.Equal(t, http.StatusOK, rec.Code)
	videos := decodeBody(t, rec)["videos"].([]interface{})
	require.Len(t, videos, 1)
	assert.Equal(t, "abc123xyz00", videos[0].(map[string]interface{})["videoId"])
}

func TestCourseVideosMissingCourse(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "GET", "/api/youtube/videos", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Course is required.", decodeBody(t, rec)["error"])
}

func TestCourseVideosDisabledWithoutClient(t *testing.T) {
	s, r := newTestServer(t, nil)
	s.videos = nil

	rec := doJSON(t, r, "GET", "/api/youtube/videos?course=golang", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Video search is not configured.", decodeBody(t, rec)["error"])
}

func TestCORSPreflight(t *testing.T) {
	// Preflight OPTIONS never matches the POST-only routes, so the
	// middleware has to answer before the router can 405 it.
	_, r := newTestServer(t, nil)
	handler := corsMiddleware(r)

	req := httptest.NewRequest("OPTIONS", "/signup", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSHeadersOnActualRequest(t *testing.T) {
	_, r := newTestServer(t, nil)
	handler := corsMiddleware(r)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendCoursesMissingInput(t *testing.T) {
	_, r := newTestServer(t, nil)

	rec := doJSON(t, r, "POST", "/recommend-courses", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User input is required.", decodeBody(t, rec)["error"])
}
