package main

import (
	"log"
	"net/http"
	"os"

	"openlearnhub"

	"github.com/gorilla/mux"
)

func main() {
	openlearnhub.SetVerbose(os.Getenv("VERBOSE") == "1")

	// Required environment
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENROUTER_API_KEY environment variable is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	dbPath := os.Getenv("OPENLEARN_DB")
	if dbPath == "" {
		dbPath = "./openlearn.db"
	}

	// Initialize database
	db, err := openlearnhub.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	// Create tables
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	tokens, err := openlearnhub.NewTokenService(jwtSecret)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	completions := openlearnhub.NewCompletionClient(apiKey, "")

	server := &Server{
		db:          db,
		identity:    openlearnhub.NewIdentityGateway(db, openlearnhub.NewFederatedVerifier("")),
		tokens:      tokens,
		completions: completions,
	}

	// Video search stays disabled without a key; the route answers with
	// an explicit message instead of relaying YouTube's 403.
	if ytKey := os.Getenv("YOUTUBE_API_KEY"); ytKey != "" {
		server.videos = openlearnhub.NewVideoClient(ytKey, "")
	} else {
		log.Printf("YOUTUBE_API_KEY is not set; video search is disabled")
	}

	r := mux.NewRouter()

	r.HandleFunc("/", server.handleRoot).Methods("GET")
	r.HandleFunc("/signup", server.handleSignup).Methods("POST")
	r.HandleFunc("/login", server.handleLogin).Methods("POST")
	r.HandleFunc("/google-signin", server.handleGoogleSignin).Methods("POST")
	r.HandleFunc("/recommend-courses", server.handleRecommendCourses).Methods("POST")
	r.HandleFunc("/generate-quiz", server.handleGenerateQuiz).Methods("POST")
	r.HandleFunc("/submit-quiz", server.handleSubmitQuiz).Methods("POST")
	r.HandleFunc("/quiz-results/{uid}", server.handleQuizResults).Methods("GET")
	r.HandleFunc("/api/youtube/videos", server.handleCourseVideos).Methods("GET")

	// Protected routes
	r.Handle("/profile", tokens.RequireAuth(http.HandlerFunc(server.handleProfile))).Methods("GET")
	r.Handle("/dashboard", tokens.RequireAuth(http.HandlerFunc(server.handleDashboard))).Methods("GET")
	r.Handle("/create-post", tokens.RequireAuth(http.HandlerFunc(server.handleCreatePost))).Methods("POST")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, corsMiddleware(r)))
}

// corsMiddleware mirrors the frontend's expectations: any origin,
// GET/POST, Content-Type and Authorization headers. It wraps the
// router rather than being registered on it so preflight OPTIONS
// requests are answered before method matching can 405 them.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
