package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFrozen  = errors.New("selection frozen")
	errMissing = errors.New("missing")
)

var testErrors = ErrorMap{
	{errFrozen, http.StatusConflict, ErrSelectionFrozen},
	{errMissing, http.StatusNotFound, ErrNotFound},
}

func TestErrorMap_Classify(t *testing.T) {
	status, code := testErrors.Classify(fmt.Errorf("select: %w", errFrozen))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ErrSelectionFrozen, code)

	status, code = testErrors.Classify(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrInternal, code)
}

func TestFailFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrCode
	}{
		{"mapped", errMissing, http.StatusNotFound, ErrNotFound},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(ContextKeyRequestID, "req-1")

			FailFromError(c, tt.err, testErrors)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, GetMessage(tt.wantCode), body.Error.Message)
			assert.Equal(t, "req-1", body.Metadata.RequestID)
		})
	}
}
