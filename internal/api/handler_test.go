package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/mocks"
	"github.com/soundweave/indexer/internal/store/schema"
)

func testRouter(st *mocks.MockStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, NewHandler(st))
	return router
}

func doGet(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	body := make(map[string]json.RawMessage)
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w, _ := doGet(t, testRouter(mocks.NewMockStore(ctrl)), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCheckpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().ListCheckpoints(gomock.Any()).Return([]schema.Checkpoint{
		{Scope: "registry", Position: 42},
		{Scope: "payments", Position: 9000},
	}, nil)

	w, body := doGet(t, testRouter(st), "/v1/checkpoints")
	require.Equal(t, http.StatusOK, w.Code)

	var checkpoints []schema.Checkpoint
	require.NoError(t, json.Unmarshal(body["checkpoints"], &checkpoints))
	require.Len(t, checkpoints, 2)
	assert.EqualValues(t, 42, checkpoints[0].Position)
}

func TestListSkippedTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().ListSkippedTransactions(gomock.Any(), domain.ChainRegistry, 5).Return([]schema.SkippedTransaction{
		{Chain: domain.ChainRegistry, BlockNumber: 10, TxHash: "0xbad", Reason: "signer mismatch"},
	}, nil)

	w, body := doGet(t, testRouter(st), "/v1/skipped?chain=registry&limit=5")
	require.Equal(t, http.StatusOK, w.Code)

	var skipped []schema.SkippedTransaction
	require.NoError(t, json.Unmarshal(body["skipped"], &skipped))
	require.Len(t, skipped, 1)
	assert.Equal(t, "0xbad", skipped[0].TxHash)
}

func TestListSkippedTransactionsUnknownChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w, _ := doGet(t, testRouter(mocks.NewMockStore(ctrl)), "/v1/skipped?chain=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSkippedTransactionsBadLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w, _ := doGet(t, testRouter(mocks.NewMockStore(ctrl)), "/v1/skipped?chain=registry&limit=-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserChallenges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetUserChallengesByUser(gomock.Any(), int64(7)).Return([]schema.UserChallenge{
		{ChallengeID: "track-upload", UserID: 7, CurrentStepCount: 2},
	}, nil)

	w, body := doGet(t, testRouter(st), "/v1/challenges/7")
	require.Equal(t, http.StatusOK, w.Code)

	var rows []schema.UserChallenge
	require.NoError(t, json.Unmarshal(body["user_challenges"], &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "track-upload", rows[0].ChallengeID)
}

func TestGetUserChallengesBadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w, _ := doGet(t, testRouter(mocks.NewMockStore(ctrl)), "/v1/challenges/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetCurrentUser(gomock.Any(), int64(99)).Return(nil, domain.ErrEntityNotFound)

	w, _ := doGet(t, testRouter(st), "/v1/users/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetCurrentUser(gomock.Any(), int64(7)).Return(&schema.User{
		VersionColumns: schema.VersionColumns{EntityID: 7, IsCurrent: true},
		Wallet:         "0xaaa",
		Handle:         "alice",
	}, nil)

	w, body := doGet(t, testRouter(st), "/v1/users/7")
	require.Equal(t, http.StatusOK, w.Code)

	var user schema.User
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.Equal(t, "alice", user.Handle)
}
