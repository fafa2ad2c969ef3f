package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		code      int
		retryable bool
	}{
		{apperrors.ErrInsufficientStock, http.StatusUnprocessableEntity, apperrors.ErrCodeInsufficientStock, false},
		{apperrors.ErrConcurrentModification, http.StatusConflict, apperrors.ErrCodeConcurrentModification, true},
		{apperrors.ErrLockTimeout, http.StatusServiceUnavailable, apperrors.ErrCodeLockTimeout, true},
		{apperrors.ErrSettlementPending, http.StatusInternalServerError, apperrors.ErrCodeSettlementPending, false},
		{apperrors.ErrInvalidToken, http.StatusUnauthorized, apperrors.ErrCodeInvalidToken, false},
		{apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在"), http.StatusNotFound, apperrors.ErrCodeOrderNotFound, false},
		{errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal, false},
	}

	for _, tc := range cases {
		w, body := serve(func(c *gin.Context) { Error(c, tc.err) })
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.retryable, body.Retryable)
	}
}

func TestSuccessWithPage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	SuccessWithPage(c, []int{1, 2}, 21, 1, 10)

	var body struct {
		Code int      `json:"code"`
		Data PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, 3, body.Data.TotalPages)
}
