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

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/middleware/requestid"
)

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-9")
	r.ServeHTTP(w, req)
	body := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestJSONWrapsDataAndPagination(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `["a"]`, string(body["data"]))
	assert.JSONEq(t, `{"page":1,"page_size":20,"total_count":1}`, string(body["pagination"]))
}

func TestErrorUsesDomainStatus(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrCapacityExceeded, ""))
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, string(body["error"]), "CAPACITY_EXCEEDED")
	assert.JSONEq(t, `{"request_id":"req-9"}`, string(body["meta"]))
}

func TestErrorCarriesDetails(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		err := appErrors.Clone(appErrors.ErrScheduleConflict, "schedule conflict: item 2: teacher is already booked at this time").
			WithDetails(map[string]interface{}{"scope": "TEACHER", "errors": []map[string]interface{}{{"item": 2, "scope": "TEACHER"}}})
		Error(c, err)
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Scope  string `json:"scope"`
			Errors []struct {
				Item  int    `json:"item"`
				Scope string `json:"scope"`
			} `json:"errors"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body["error"], &payload))
	assert.Equal(t, "SCHEDULE_CONFLICT", payload.Code)
	assert.Contains(t, payload.Message, "teacher is already booked")
	assert.Equal(t, "TEACHER", payload.Details.Scope)
	require.Len(t, payload.Details.Errors, 1)
	assert.Equal(t, 2, payload.Details.Errors[0].Item)
}

func TestErrorHidesInternalMessages(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, appErrors.Wrap(errors.New("pq: password authentication failed"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, string(body["error"]), "failed to load section")
	assert.Contains(t, string(body["error"]), "internal server error")
}

func TestNoContent(t *testing.T) {
	w, _ := serve(t, func(c *gin.Context) { NoContent(c) })
	assert.Equal(t, http.StatusNoContent, w.Code)
}
