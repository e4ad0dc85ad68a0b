package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialstakes/auth"
	"socialstakes/infrastructure/observability"
	"socialstakes/models"
	"socialstakes/server/common"
	"socialstakes/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret"

type testServer struct {
	server      *Server
	users       *service.MockUserService
	bets        *service.MockBetService
	leaderboard *service.MockLeaderboardService
	metrics     *observability.Metrics
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		users:       new(service.MockUserService),
		bets:        new(service.MockBetService),
		leaderboard: new(service.MockLeaderboardService),
		metrics:     observability.NewMetrics(),
	}
	ts.server = New(Config{Port: 0, JWTSecret: testSecret}, Services{
		Users:       ts.users,
		Bets:        ts.bets,
		Leaderboard: ts.leaderboard,
	}, ts.metrics, nil)

	t.Cleanup(func() {
		ts.users.AssertExpectations(t)
		ts.bets.AssertExpectations(t)
		ts.leaderboard.AssertExpectations(t)
	})
	return ts
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a request; userID 0 sends it unauthenticated
func (ts *testServer) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", 0, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpointRecordsRequests(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/healthz", 0, nil)
	ts.do(t, http.MethodGet, "/nowhere", 0, nil)

	rec := ts.do(t, http.MethodGet, "/metrics", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `socialstakes_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, `socialstakes_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(common.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(common.RequestIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/healthz", 0, nil)
		assert.Len(t, rec.Header().Get(common.RequestIDHeader), 36)
	})
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/users/me", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := auth.GenerateToken(7, "other-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token not accepted on REST routes", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/users/me?token="+tokenFor(t, 7), 0, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		ts.users.On("GetUser", mock.Anything, int64(7)).
			Return(&models.User{ID: 7, Username: "alice", Balance: 500}, nil).Once()

		rec := ts.do(t, http.MethodGet, "/api/v1/users/me", 7, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var user models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(500), user.Balance)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("Register", mock.Anything, "alice", "correct-horse").
			Return(&models.User{ID: 1, Username: "alice", Balance: 100000}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/users", 0, map[string]string{
			"username": "alice",
			"password": "correct-horse",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"balance":100000`)
	})

	t.Run("validation failure does not reach the service", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/v1/users", 0, map[string]string{
			"username": "alice",
			"password": "short",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation failed", resp.Error)
		require.Len(t, resp.Details, 1)
		assert.Contains(t, resp.Details[0], "Password")
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/v1/users", 0, `{"username":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeError(t, rec).Error)
	})

	t.Run("username taken", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("Register", mock.Anything, "alice", "correct-horse").
			Return(nil, fmt.Errorf("%q: %w", "alice", models.ErrUsernameTaken)).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/users", 0, map[string]string{
			"username": "alice",
			"password": "correct-horse",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUserQueries(t *testing.T) {
	ts := newTestServer(t)

	ts.users.On("GetBalanceHistory", mock.Anything, int64(3), 10).Return(nil, nil).Once()
	rec := ts.do(t, http.MethodGet, "/api/v1/users/me/history?limit=10", 3, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"history":[]}`, rec.Body.String())

	ts.users.On("GetCategoryStats", mock.Anything, int64(3)).Return([]*models.CategoryStats{
		{Category: models.BetCategorySports, Total: 2, Won: 1, Lost: 1, Staked: 200, Payouts: 300},
	}, nil).Once()
	rec = ts.do(t, http.MethodGet, "/api/v1/users/me/categories", 3, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"sports"`)
}

func TestCreateBet(t *testing.T) {
	t.Run("maps request to params", func(t *testing.T) {
		ts := newTestServer(t)
		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

		ts.bets.On("CreateBet", mock.Anything, mock.MatchedBy(func(p service.CreateBetParams) bool {
			return p.CreatorID == 7 &&
				p.Title == "Who wins?" &&
				p.Category == models.BetCategorySports &&
				p.Visibility == models.BetVisibility("") &&
				len(p.Options) == 2 &&
				p.Options[1].Text == "B" && p.Options[1].Odds == 2.5 &&
				p.ExpiresAt != nil && p.ExpiresAt.Equal(expires)
		})).Return(&models.BetDetail{
			Bet:          &models.Bet{ID: 11, CreatorID: 7, Title: "Who wins?", Status: models.BetStatusOpen},
			Options:      []*models.BetOption{{OptionIndex: 0, Text: "A", Odds: 1}, {OptionIndex: 1, Text: "B", Odds: 2.5}},
			Participants: []*models.BetParticipant{},
		}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets", 7, map[string]any{
			"title":     "Who wins?",
			"category":  "sports",
			"options":   []map[string]any{{"text": "A"}, {"text": "B", "odds": 2.5}},
			"expiresAt": expires.Format(time.RFC3339),
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var detail models.BetDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		assert.Equal(t, int64(11), detail.Bet.ID)
		assert.Len(t, detail.Options, 2)
	})

	t.Run("rejects invalid requests before the service", func(t *testing.T) {
		ts := newTestServer(t)

		tests := []struct {
			name string
			body map[string]any
		}{
			{"single option", map[string]any{"title": "t", "options": []map[string]any{{"text": "A"}}}},
			{"missing title", map[string]any{"options": []map[string]any{{"text": "A"}, {"text": "B"}}}},
			{"unknown category", map[string]any{"title": "t", "category": "chess", "options": []map[string]any{{"text": "A"}, {"text": "B"}}}},
			{"negative odds", map[string]any{"title": "t", "options": []map[string]any{{"text": "A", "odds": -1}, {"text": "B"}}}},
			{"empty option text", map[string]any{"title": "t", "options": []map[string]any{{"text": ""}, {"text": "B"}}}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := ts.do(t, http.MethodPost, "/api/v1/bets", 7, tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})

	t.Run("requires auth", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bets", 0, map[string]any{"title": "t"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestJoinBet_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"insufficient balance", fmt.Errorf("have 10, need 50: %w", models.ErrInsufficientBalance), http.StatusUnprocessableEntity},
		{"already joined", fmt.Errorf("user 2: %w", models.ErrAlreadyJoined), http.StatusConflict},
		{"not open", fmt.Errorf("bet 5 is resolved: %w", models.ErrInvalidState), http.StatusConflict},
		{"unknown bet", fmt.Errorf("bet 5: %w", models.ErrNotFound), http.StatusNotFound},
		{"unknown option", fmt.Errorf("no option %q: %w", "C", models.ErrInvalidOutcome), http.StatusBadRequest},
		{"bad amount", fmt.Errorf("stake must be positive: %w", models.ErrInvalidInput), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.bets.On("JoinBet", mock.Anything, int64(5), int64(2), "A", int64(50)).Return(nil, tt.err).Once()

			rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, map[string]any{"choice": "A", "amount": 50})

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.err.Error(), resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestJoinBet(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("JoinBet", mock.Anything, int64(5), int64(2), "1", int64(50)).Return(&models.BetParticipant{
			ID: 1, BetID: 5, UserID: 2, OptionIndex: 1, Amount: 50, Status: models.ParticipantStatusAccepted,
		}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, map[string]any{"choice": "1", "amount": 50})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"accepted"`)
	})

	t.Run("numeric choice is an option index", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("JoinBet", mock.Anything, int64(5), int64(2), "1", int64(50)).Return(&models.BetParticipant{
			ID: 1, BetID: 5, UserID: 2, OptionIndex: 1, Amount: 50, Status: models.ParticipantStatusAccepted,
		}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, `{"choice":1,"amount":50}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"optionIndex":1`)
	})

	t.Run("choice must be text or an integer", func(t *testing.T) {
		ts := newTestServer(t)
		for _, body := range []string{`{"choice":1.5,"amount":50}`, `{"choice":true,"amount":50}`, `{"choice":null,"amount":50}`} {
			rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("invalid bet id", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bets/abc/join", 2, map[string]any{"choice": "A", "amount": 50})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero amount", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, map[string]any{"choice": "A", "amount": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal errors are opaque", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("JoinBet", mock.Anything, int64(5), int64(2), "A", int64(50)).
			Return(nil, errors.New("failed to deduct balance: connection reset")).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/join", 2, map[string]any{"choice": "A", "amount": 50})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "internal server error", resp.Error)
		assert.Equal(t, rec.Header().Get(common.RequestIDHeader), resp.RequestID)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}

func TestLifecycleRoutes(t *testing.T) {
	ts := newTestServer(t)
	outcome := 0

	ts.bets.On("ActivateBet", mock.Anything, int64(5), int64(7)).
		Return(&models.Bet{ID: 5, Status: models.BetStatusActive}, nil).Once()
	rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/activate", 7, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"active"`)

	ts.bets.On("ResolveBet", mock.Anything, int64(5), int64(8), "A").
		Return(nil, fmt.Errorf("only the creator can resolve: %w", models.ErrNotAuthorized)).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/bets/5/resolve", 8, map[string]string{"outcome": "A"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.bets.On("ResolveBet", mock.Anything, int64(5), int64(7), "A").Return(&models.BetResult{
		Bet:           &models.Bet{ID: 5, Status: models.BetStatusResolved, OutcomeIndex: &outcome},
		WinningOption: &models.BetOption{OptionIndex: 0, Text: "A"},
		Winners:       []*models.BetParticipant{{UserID: 2, Amount: 100}},
		Losers:        []*models.BetParticipant{{UserID: 3, Amount: 100}},
		TotalPool:     200,
		PayoutDetails: map[int64]int64{2: 200},
	}, nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/bets/5/resolve", 7, map[string]string{"outcome": "A"})
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.BetResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(200), result.PayoutDetails[2])
	assert.Equal(t, "A", result.WinningOption.Text)

	rec = ts.do(t, http.MethodPost, "/api/v1/bets/5/resolve", 7, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.bets.On("ResolveBet", mock.Anything, int64(5), int64(7), "0").Return(&models.BetResult{
		Bet:           &models.Bet{ID: 5, Status: models.BetStatusResolved, OutcomeIndex: &outcome},
		WinningOption: &models.BetOption{OptionIndex: 0, Text: "A"},
		TotalPool:     200,
		PayoutDetails: map[int64]int64{2: 200},
	}, nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/bets/5/resolve", 7, `{"outcome":0}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.bets.On("CancelBet", mock.Anything, int64(6), int64(7)).Return(&models.BetResult{
		Bet:           &models.Bet{ID: 6, Status: models.BetStatusCancelled},
		Refunded:      true,
		TotalPool:     300,
		PayoutDetails: map[int64]int64{2: 100, 3: 200},
	}, nil).Once()
	rec = ts.do(t, http.MethodPost, "/api/v1/bets/6/cancel", 7, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"refunded":true`)
}

func TestInvitationRoutes(t *testing.T) {
	t.Run("invite", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("InviteParticipants", mock.Anything, int64(5), int64(7), []int64{2, 3}, "1").
			Return([]*models.BetParticipant{
				{ID: 1, BetID: 5, UserID: 2, Status: models.ParticipantStatusPending},
				{ID: 2, BetID: 5, UserID: 3, Status: models.ParticipantStatusPending},
			}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/invite", 7, `{"userIds":[2,3],"option":1}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Invited []*models.BetParticipant `json:"invited"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Invited, 2)
		assert.Equal(t, models.ParticipantStatusPending, resp.Invited[0].Status)
	})

	t.Run("invite validation", func(t *testing.T) {
		ts := newTestServer(t)
		for _, body := range []string{`{"userIds":[]}`, `{"userIds":[0]}`, `{}`} {
			rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/invite", 7, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("invite by non-creator", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("InviteParticipants", mock.Anything, int64(5), int64(8), []int64{2}, "").
			Return(nil, fmt.Errorf("only the creator: %w", models.ErrNotAuthorized)).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/invite", 8, `{"userIds":[2]}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accept", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("RespondToInvite", mock.Anything, int64(5), int64(2), true, "", int64(40)).
			Return(&models.BetParticipant{ID: 1, BetID: 5, UserID: 2, OptionIndex: 1, Amount: 40, Status: models.ParticipantStatusAccepted}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/respond", 2, `{"accept":true,"amount":40}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"accepted"`)
	})

	t.Run("decline", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("RespondToInvite", mock.Anything, int64(5), int64(2), false, "", int64(0)).
			Return(&models.BetParticipant{ID: 1, BetID: 5, UserID: 2, Status: models.ParticipantStatusDeclined}, nil).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/respond", 2, `{"accept":false}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"declined"`)
	})

	t.Run("respond requires a decision", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/respond", 2, `{"amount":40}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no pending invitation", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("RespondToInvite", mock.Anything, int64(5), int64(2), true, "No", int64(40)).
			Return(nil, fmt.Errorf("no pending invitation: %w", models.ErrNotFound)).Once()

		rec := ts.do(t, http.MethodPost, "/api/v1/bets/5/respond", 2, `{"accept":true,"choice":"No","amount":40}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list invites", func(t *testing.T) {
		ts := newTestServer(t)
		ts.bets.On("ListInvites", mock.Anything, int64(2), 0).Return(nil, nil).Once()

		rec := ts.do(t, http.MethodGet, "/api/v1/bets/invites", 2, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"bets":[]}`, rec.Body.String())

		rec = ts.do(t, http.MethodGet, "/api/v1/bets/invites", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBetQueries(t *testing.T) {
	ts := newTestServer(t)

	ts.bets.On("ListPublicBets", mock.Anything, 5, 10).Return(nil, nil).Once()
	rec := ts.do(t, http.MethodGet, "/api/v1/bets/public?limit=5&offset=10", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bets":[]}`, rec.Body.String())

	ts.bets.On("ListUserBets", mock.Anything, int64(4), 0).
		Return([]*models.Bet{{ID: 9, Title: "mine"}}, nil).Once()
	rec = ts.do(t, http.MethodGet, "/api/v1/bets/my-bets", 4, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"mine"`)

	rec = ts.do(t, http.MethodGet, "/api/v1/bets/my-bets", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.bets.On("GetBet", mock.Anything, int64(9)).Return(&models.BetDetail{
		Bet:          &models.Bet{ID: 9},
		Options:      []*models.BetOption{},
		Participants: []*models.BetParticipant{},
	}, nil).Once()
	rec = ts.do(t, http.MethodGet, "/api/v1/bets/9", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.bets.On("GetBet", mock.Anything, int64(404)).Return(nil, fmt.Errorf("bet 404: %w", models.ErrNotFound)).Once()
	rec = ts.do(t, http.MethodGet, "/api/v1/bets/404", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/bets/public", 0, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLeaderboardRoutes(t *testing.T) {
	ts := newTestServer(t)

	ts.leaderboard.On("GetGlobal", mock.Anything).Return([]*models.LeaderboardEntry{
		{Rank: 1, UserID: 2, Username: "bob", WinRate: 1},
		{Rank: 2, UserID: 1, Username: "alice", WinRate: 0.5},
	}, nil).Once()
	rec := ts.do(t, http.MethodGet, "/api/v1/leaderboard/global", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var global struct {
		Entries []*models.LeaderboardEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &global))
	require.Len(t, global.Entries, 2)
	assert.Equal(t, "bob", global.Entries[0].Username)

	ts.leaderboard.On("GetRanking", mock.Anything, int64(1)).
		Return(&models.LeaderboardEntry{Rank: 2, UserID: 1, Username: "alice"}, nil).Once()
	rec = ts.do(t, http.MethodGet, "/api/v1/leaderboard/ranking", 1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rank":2`)
}

func TestRecoveryReturnsOpaque500(t *testing.T) {
	ts := newTestServer(t)
	ts.leaderboard.On("GetGlobal", mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil, nil).Once()

	rec := ts.do(t, http.MethodGet, "/api/v1/leaderboard/global", 0, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotEmpty(t, resp.RequestID)
}
