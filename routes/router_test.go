package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/churchquest/xpcore/config"
	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/services/testutil"
	"github.com/churchquest/xpcore/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *testutil.Fixture) {
	t.Helper()
	config.Set(config.AppConfig{
		JWTSecret: "router-test-secret",
		GinMode:   "test",
		GinPath:   filepath.Join(t.TempDir(), "gin.log"),
		// high enough that the flows below never hit the limiter
		RateLimitPerMinute: 6000,
	})
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SERVICE")
	return SetupRouter(db), f
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	church := ""
	if u.ChurchID != nil {
		church = *u.ChurchID
	}
	tok, err := utils.GenerateToken(u.ID, u.Role, church, time.Hour)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := call(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	w, _ = call(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, r, http.MethodGet, "/api/v1/unknown", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40400, env.Code)
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	r, f := newTestRouter(t)
	userTok := tokenFor(t, f.User)
	adminTok := tokenFor(t, f.Admin)

	// members cannot see the admin queue
	w, _ := call(t, r, http.MethodGet, "/api/v1/submissions/pending", userTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, env := call(t, r, http.MethodGet, "/api/v1/submissions/pending", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending struct {
		Items      []models.Submission `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending.Items, 1)
	require.EqualValues(t, 1, pending.Pagination.Total)

	path := "/api/v1/submissions/" + f.Submission.ID + "/approve"
	w, env = call(t, r, http.MethodPost, path, adminTok, map[string]string{"comment": "amen"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved struct {
		Submission models.Submission `json:"submission"`
		XP         struct {
			AwardedXP int `json:"awarded_xp"`
		} `json:"xp"`
		Balance int `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	require.Equal(t, models.SubmissionApproved, approved.Submission.Status)
	require.Equal(t, 15, approved.XP.AwardedXP)
	require.Equal(t, 10, approved.Balance)

	w, env = call(t, r, http.MethodPost, path, adminTok, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_DECIDED", env.Message)

	w, env = call(t, r, http.MethodGet, "/api/v1/me/xp", userTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Level      int `json:"level"`
		LevelXP    int `json:"level_xp"`
		StreakDays int `json:"streak_days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	require.Equal(t, 1, progress.Level)
	require.Equal(t, 15, progress.LevelXP)
	require.Equal(t, 1, progress.StreakDays)

	w, env = call(t, r, http.MethodGet, "/api/v1/me/xp/history", userTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Items []models.XPLedger `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Items, 1)
	require.Equal(t, 15, history.Items[0].XPGranted)

	w, env = call(t, r, http.MethodGet, "/api/v1/me/points", userTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"church_id":"`+f.Church.ID+`","balance":10}`, string(env.Data))

	// approved tasks cannot be claimed again
	w, env = call(t, r, http.MethodPost, "/api/v1/submissions", userTok, map[string]string{"task_id": f.Task.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_APPROVED", env.Message)
}

func TestRejectAndResubmitOverHTTP(t *testing.T) {
	r, f := newTestRouter(t)
	userTok := tokenFor(t, f.User)
	adminTok := tokenFor(t, f.Admin)

	w, env := call(t, r, http.MethodPost, "/api/v1/submissions", userTok, map[string]string{"task_id": f.Task.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_PENDING", env.Message)

	w, _ = call(t, r, http.MethodPost, "/api/v1/submissions/"+f.Submission.ID+"/reject", adminTok, map[string]string{"comment": "add a photo"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/v1/submissions", userTok, map[string]string{"task_id": f.Task.ID, "comment": "again"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = call(t, r, http.MethodGet, "/api/v1/submissions/mine?status=rejected", userTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Items []models.Submission `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Items, 1)
	require.Equal(t, f.Submission.ID, mine.Items[0].ID)

	w, _ = call(t, r, http.MethodPost, "/api/v1/submissions", userTok, map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/v1/submissions/missing/approve", adminTok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
