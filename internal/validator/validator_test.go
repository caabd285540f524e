package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBind(t *testing.T) {
	Setup()

	tests := []struct {
		name      string
		body      string
		wantField string
		wantText  string
	}{
		{name: "valid", body: `{"option_key":"choiceA"}`},
		{name: "missing", body: `{}`, wantField: "option_key", wantText: "required"},
		{name: "blank", body: `{"option_key":"   "}`, wantField: "option_key", wantText: "must not be blank"},
		{name: "syntax", body: `{"option_key":`, wantField: "detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req model.SelectOptionRequest
			fields := bindBody(t, tt.body, &req)
			if tt.wantField == "" {
				assert.Nil(t, fields)
				assert.Equal(t, "choiceA", req.OptionKey)
				return
			}
			assert.Contains(t, fields, tt.wantField)
			assert.Contains(t, fields[tt.wantField], tt.wantText)
		})
	}
}

func TestBind_LaunchRequest(t *testing.T) {
	Setup()

	var req model.LaunchRequest
	fields := bindBody(t, `{"shell_key":"k","token_type":"admin","user_id":"u1","activity_id":"nope"}`, &req)
	assert.Contains(t, fields, "token_type")
	assert.Contains(t, fields, "activity_id")
	assert.NotContains(t, fields, "user_id")
}
