package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/liftlog/internal/config"
	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testSecret = "test-secret-key-123"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.Server.IdempotencyTTL = time.Hour
	cfg.Analytics.CacheTTL = 10 * time.Minute
	cfg.Analytics.ExecutionStateTTL = 24 * time.Hour
	return cfg
}

// setupTestDB spins up a fresh MongoDB container and returns the database
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	mongodbContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongodbContainer.Terminate(context.Background()) })

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("liftlog_test")
}

// offlineDB returns a handle whose client never reaches a server; enough for
// routes that fail before touching storage
func offlineDB(t *testing.T) *mongo.Database {
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("offline")
}

func newTestApp(t *testing.T, db *mongo.Database) *fiber.App {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	return NewApp(AppDependencies{
		Config:      testConfig(),
		MongoDB:     db,
		RedisClient: redisClient,
	})
}

func token(t *testing.T, userID, tenantID string, roles ...string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, domain.LiftlogClaims{
		UserID:   userID,
		Roles:    roles,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type requestFunc func(method, path, token string, body interface{}, headers ...string) (*http.Response, map[string]interface{})

func requester(t *testing.T, app *fiber.App) requestFunc {
	return func(method, path, tok string, body interface{}, headers ...string) (*http.Response, map[string]interface{}) {
		t.Helper()
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, err := json.Marshal(body)
			require.NoError(t, err)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, err := http.NewRequest(method, path, bodyReader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out map[string]interface{}
		_ = json.Unmarshal(raw, &out)
		return resp, out
	}
}

// unwrap returns the data object of a {"success": true, "data": ...} response
func unwrap(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.Equal(t, true, body["success"], "not a success envelope: %v", body)
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

func TestHealth(t *testing.T) {
	request := requester(t, newTestApp(t, offlineDB(t)))

	resp, body := request("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestRouteGuards(t *testing.T) {
	request := requester(t, newTestApp(t, offlineDB(t)))
	member := token(t, "user-1", "", domain.RoleMember)
	coach := token(t, "coach-1", "gym-1", domain.RoleCoach)

	resp, _ := request("GET", "/v1/me/analytics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request("GET", "/v1/pro/plans", member, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = request("GET", "/v1/me/plans", coach, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := request("GET", "/v1/me/analytics?from=yesterday", member, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid from")

	resp, _ = request("GET", "/v1/me/executions/active", member, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "execution state lives in redis only")
}

func TestGoldenPath(t *testing.T) {
	db := setupTestDB(t)
	request := requester(t, newTestApp(t, db))

	coach := token(t, "coach-1", "gym-1", domain.RoleCoach)
	member := token(t, "user-1", "", domain.RoleMember)

	// ==========================================
	// STEP 1: Coach writes a plan for the member
	// ==========================================
	resp, plan := request("POST", "/v1/pro/plans", coach, map[string]interface{}{
		"name":     "Hypertrophy A",
		"memberId": "user-1",
		"trainingDays": []map[string]interface{}{{
			"name":  "Push",
			"order": 1,
			"exercises": []map[string]interface{}{
				{"id": "bench", "name": "Bench Press", "sets": 3, "reps": "8-12", "rest": "1m30s"},
				{"id": "dips", "name": "Dips", "sets": 2, "reps": "10", "rest": "60"},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	planID, _ := unwrap(t, plan)["id"].(string)
	require.NotEmpty(t, planID)

	resp, mine := request("GET", "/v1/me/plans/"+planID, member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hypertrophy A", unwrap(t, mine)["name"])

	// ==========================================
	// STEP 2: Member performs the training day
	// ==========================================
	resp, session := request("POST", "/v1/me/executions", member, map[string]interface{}{
		"workoutId":        planID,
		"trainingDayOrder": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := unwrap(t, session)["id"]
	assert.NotEmpty(t, sessionID)

	resp, _ = request("POST", "/v1/me/executions", member, map[string]interface{}{
		"workoutId":        planID,
		"trainingDayOrder": 1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for _, set := range []map[string]interface{}{
		{"weight": 80, "reps": 10, "completed": true},
		{"weight": 82.5, "reps": 8, "completed": true},
		{"weight": 0, "reps": 6, "completed": false},
	} {
		resp, _ = request("PUT", "/v1/me/executions/active/exercises/0/sets", member, set)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, _ = request("PUT", "/v1/me/executions/active/exercises/9/sets", member, map[string]interface{}{"reps": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = request("PUT", "/v1/me/executions/active/exercises/1/notes", member, map[string]interface{}{"notes": "skipped, elbow"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, active := request("GET", "/v1/me/executions/active", member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sessionID, unwrap(t, active)["id"])

	// ==========================================
	// STEP 3: Finish, retried with the same correlation id
	// ==========================================
	resp, record := request("POST", "/v1/me/executions/active/finish", member,
		map[string]interface{}{"notes": "solid"}, "X-Correlation-ID", "finish-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	historyID, _ := unwrap(t, record)["id"].(string)
	require.NotEmpty(t, historyID)

	resp, replay := request("POST", "/v1/me/executions/active/finish", member,
		map[string]interface{}{"notes": "solid"}, "X-Correlation-ID", "finish-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotent-Replay"))
	assert.Equal(t, historyID, unwrap(t, replay)["id"])

	resp, _ = request("GET", "/v1/me/executions/active", member, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// ==========================================
	// STEP 4: History and analytics
	// ==========================================
	resp, list := request("GET", "/v1/me/histories", member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list["data"], 1)

	resp, one := request("GET", "/v1/me/histories/"+historyID, member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := one["data"].(map[string]interface{})
	exercises := data["exercises"].([]interface{})
	bench := exercises[0].(map[string]interface{})
	assert.EqualValues(t, 2, bench["completedSets"])
	sets := bench["sets"].([]interface{})
	firstSet := sets[0].(map[string]interface{})
	assert.EqualValues(t, 8, firstSet["plannedRepsMin"])
	assert.EqualValues(t, 90, firstSet["restSeconds"])
	_, hasWeight := sets[2].(map[string]interface{})["weight"]
	assert.False(t, hasWeight, "zero weight is stored as absent")

	resp, analytics := request("GET", "/v1/me/analytics?exercise_name=bench", member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	agg := analytics["data"].(map[string]interface{})
	exAnalytics := agg["exerciseAnalytics"].([]interface{})
	require.Len(t, exAnalytics, 1)
	assert.EqualValues(t, 1460, exAnalytics[0].(map[string]interface{})["totalVolume"])

	// A manual record invalidates the memoized analytics
	resp, _ = request("POST", "/v1/me/histories", member, map[string]interface{}{
		"workoutId":  planID,
		"executedAt": time.Now().UTC().Format(time.RFC3339),
		"exercises":  []interface{}{},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, analytics = request("GET", "/v1/me/analytics", member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	workouts := analytics["data"].(map[string]interface{})["workoutAnalytics"].(map[string]interface{})
	assert.EqualValues(t, 2, workouts["totalWorkouts"])

	// ==========================================
	// STEP 5: Coach views
	// ==========================================
	resp, byWorkout := request("GET", fmt.Sprintf("/v1/pro/workouts/%s/histories", planID), coach, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, byWorkout["data"], 2)

	resp, _ = request("GET", "/v1/pro/clients/user-1/analytics", coach, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	otherCoach := token(t, "coach-2", "gym-1", domain.RoleCoach)
	resp, _ = request("GET", "/v1/pro/clients/user-1/analytics", otherCoach, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, overview := request("GET", "/v1/pro/clients/overview", coach, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overviews := overview["data"].([]interface{})
	require.Len(t, overviews, 1)
	assert.Equal(t, "user-1", overviews[0].(map[string]interface{})["memberId"])
}
