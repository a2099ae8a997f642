package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	learningrepos "github.com/yungbote/learny-backend/internal/data/repos/learning"
	"github.com/yungbote/learny-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learny-backend/internal/domain/learning"
	httpH "github.com/yungbote/learny-backend/internal/http/handlers"
	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/realtime"
	"github.com/yungbote/learny-backend/internal/services"
)

func lessonsPayload(prefix string, n int) []byte {
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{"title": fmt.Sprintf("%s %d", prefix, i+1), "description": "about " + prefix}
	}
	b, _ := json.Marshal(map[string]any{"lessons": items})
	return b
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testutil.Logger(t)
	db := testutil.DB(t)
	metrics := observability.NewMetrics()
	hub := realtime.NewSSEHub(log)
	emit := &services.HubEmitter{Hub: hub}

	gen := coursechat.GeneratorFunc(func(ctx context.Context, system, user string) ([]byte, error) {
		switch {
		case strings.Contains(user, "generate exactly"):
			return lessonsPayload("Extra", 5), nil
		case strings.Contains(user, "Create a detailed lesson"):
			return []byte(`{"blocks":[{"type":"text","text":"body"}],"quiz":[{"prompt":"q?","options":["a","b"],"correct_index":1}]}`), nil
		default:
			return lessonsPayload("Intro", 4), nil
		}
	})
	gateway := coursechat.NewGateway(gen, log, metrics, coursechat.GatewayConfig{})

	courses := services.NewCourseService(
		db,
		log,
		learningrepos.NewCourseRepo(db, log),
		learningrepos.NewLessonRepo(db, log),
		learningrepos.NewQuizQuestionRepo(db, log),
		emit,
	)
	convs := services.NewConversationService(log, gateway, courses, emit, metrics, services.ConversationConfig{})
	t.Cleanup(convs.Close)
	content := services.NewLessonContentService(log, courses, gateway, emit, metrics, 2)

	return NewRouter(RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ConversationHandler: httpH.NewConversationHandler(log, convs),
		CourseHandler:       httpH.NewCourseHandler(log, courses, content),
		RealtimeHandler:     httpH.NewRealtimeHandler(hub),
		HealthHandler:       httpH.NewHealthHandler(),
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type convBody struct {
	Conversation coursechat.Snapshot `json:"conversation"`
}

type courseBody struct {
	Course types.Course `json:"course"`
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "learny_api_requests_total")
}

func TestConversationToCourseOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/lesson-count-options", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[struct {
		Options []string `json:"options"`
	}](t, rec)
	assert.Equal(t, coursechat.DefaultLessonCountOptions, opts.Options)

	rec = do(t, r, http.MethodPost, "/api/conversations", gin.H{"topic": "Go"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conv := decode[convBody](t, rec).Conversation
	base := "/api/conversations/" + conv.ID.String()

	rec = do(t, r, http.MethodPost, base+"/lesson-count?wait=true", gin.H{"option": "3-5 lessons"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	conv = decode[convBody](t, rec).Conversation
	require.Len(t, conv.Suggestions, 4)
	assert.Equal(t, coursechat.PhaseSuggestionsShown, conv.Phase)

	rec = do(t, r, http.MethodPost, base+"/suggestions/"+conv.Suggestions[1].ID.String()+"/toggle", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[convBody](t, rec).Conversation.SelectedCount)

	rec = do(t, r, http.MethodPost, base+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ValidateResult](t, rec)
	assert.True(t, res.Reconciled)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 3, res.Snapshot.SelectedCount)

	rec = do(t, r, http.MethodPost, base+"/finalize", gin.H{"title": "Go basics", "pace": "deep_dive"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	course := decode[courseBody](t, rec).Course
	assert.Equal(t, "Go basics", course.Title)
	assert.Equal(t, types.PaceDeepDive, course.Pace)
	require.Len(t, course.Lessons, 3)
	assert.Equal(t, "Intro 2", course.Lessons[0].Title)

	rec = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Courses []types.Course `json:"courses"`
	}](t, rec)
	found := false
	for _, c := range list.Courses {
		found = found || c.ID == course.ID
	}
	assert.True(t, found, "finalized course missing from list")

	courseBase := "/api/courses/" + course.ID.String()
	rec = do(t, r, http.MethodPost, courseBase+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[services.LessonContentReport](t, rec)
	assert.Equal(t, 3, report.Generated)
	assert.Zero(t, report.Failed)

	first := course.Lessons[0].ID.String()
	rec = do(t, r, http.MethodPost, courseBase+"/lessons/"+first+"/quiz", gin.H{"answers": []int{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quiz := decode[services.QuizResult](t, rec)
	assert.True(t, quiz.Passed)
	require.NotNil(t, quiz.Course)
	assert.True(t, quiz.Course.Lessons[1].IsUnlocked)

	rec = do(t, r, http.MethodPut, courseBase, gin.H{"difficulty": "advanced"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.DifficultyAdvanced, decode[courseBody](t, rec).Course.Difficulty)

	rec = do(t, r, http.MethodDelete, courseBase, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodGet, courseBase, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationErrors(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad id", http.MethodGet, "/api/conversations/nope", nil, http.StatusBadRequest, "invalid_conversation_id"},
		{"unknown id", http.MethodGet, "/api/conversations/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
		{"blank topic", http.MethodPost, "/api/conversations", gin.H{"topic": "  "}, http.StatusBadRequest, "invalid_argument"},
		{"bad json", http.MethodPost, "/api/conversations", "not an object", http.StatusBadRequest, "invalid_request"},
		{"unknown course", http.MethodGet, "/api/courses/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestFinalizeWithoutSelectionConflicts(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/conversations", gin.H{"topic": "Go"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[convBody](t, rec).Conversation.ID.String()

	rec = do(t, r, http.MethodPost, "/api/conversations/"+id+"/lesson-count?wait=true", gin.H{"option": "not sure"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/conversations/"+id+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodDelete, "/api/conversations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodPost, "/api/conversations/"+id+"/more-suggestions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSSESubscribeRequiresLiveClient(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/sse/subscribe", gin.H{"client_id": uuid.NewString(), "channel": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sse/subscribe", gin.H{"client_id": "nope", "channel": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/sse/unsubscribe", gin.H{"client_id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
