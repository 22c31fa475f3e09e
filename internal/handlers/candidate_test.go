package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Candidate{}, &models.Interview{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func candidateRouter(db *gorm.DB) *gin.Engine {
	h := NewCandidateHandler(db)
	router := gin.New()
	router.POST("/api/candidates", h.Create)
	router.GET("/api/candidates", h.List)
	router.GET("/api/candidates/:id", h.Get)
	router.PATCH("/api/candidates/:id/status", h.UpdateStatus)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateCandidate(t *testing.T) {
	router := candidateRouter(newTestDB(t))

	w := doJSON(router, "POST", "/api/candidates",
		map[string]string{"name": "Jordan Vale", "email": "jordan@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Candidate `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ID == "" {
		t.Error("created candidate should get a generated id")
	}
	if resp.Data.Status != models.StatusPending || resp.Data.ScoreStatus != models.ScoreStatusMissing {
		t.Errorf("defaults = %q/%q, want pending/missing", resp.Data.Status, resp.Data.ScoreStatus)
	}
}

func TestCreateCandidateValidation(t *testing.T) {
	router := candidateRouter(newTestDB(t))

	w := doJSON(router, "POST", "/api/candidates", map[string]string{"name": "No Email"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = doJSON(router, "POST", "/api/candidates",
		map[string]string{"name": "Bad Email", "email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid email", w.Code)
	}
}

func TestGetCandidateWithFallbackFeedback(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}

	router := candidateRouter(db)
	w := doJSON(router, "GET", "/api/candidates/cand-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Feedback models.InterviewFeedback `json:"feedback"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// No stored feedback: the handler must still return a full record.
	if len(resp.Data.Feedback.Criteria) != len(models.CriterionNames) {
		t.Errorf("fallback criteria = %d, want %d", len(resp.Data.Feedback.Criteria), len(models.CriterionNames))
	}
	if resp.Data.Feedback.OverallFeedback == "" {
		t.Error("fallback overall feedback should not be empty")
	}
}

func TestGetCandidateNotFound(t *testing.T) {
	router := candidateRouter(newTestDB(t))
	w := doJSON(router, "GET", "/api/candidates/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateStatusConflictOnRestart(t *testing.T) {
	db := newTestDB(t)
	svc := services.NewCandidateService(db)
	if _, err := svc.Create("cand-1", "A", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	router := candidateRouter(db)

	w := doJSON(router, "PATCH", "/api/candidates/cand-1/status",
		map[string]string{"status": "interviewing"})
	if w.Code != http.StatusOK {
		t.Fatalf("pending -> interviewing status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "PATCH", "/api/candidates/cand-1/status",
		map[string]string{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("interviewing -> completed status = %d", w.Code)
	}

	// Restart attempt after completion.
	w = doJSON(router, "PATCH", "/api/candidates/cand-1/status",
		map[string]string{"status": "interviewing"})
	if w.Code != http.StatusConflict {
		t.Errorf("completed -> interviewing status = %d, want 409", w.Code)
	}

	w = doJSON(router, "PATCH", "/api/candidates/cand-1/status",
		map[string]string{"status": "paused"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", w.Code)
	}
}
