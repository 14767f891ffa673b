package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
)

func TestRespondCommittedExposesFeedSequence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	editID := uuid.New()
	RespondCommitted(c, http.StatusCreated, domainagg.Receipt{EditID: editID, Seq: 12}, gin.H{"word": "jezik"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "12", rec.Header().Get(HeaderFeedSeq))
	assert.Equal(t, editID.String(), rec.Header().Get(HeaderEditID))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(12), body["seq"])
	assert.Equal(t, "jezik", body["word"])
}

func TestRespondErrorFallsBackToStatusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondError(c, http.StatusServiceUnavailable, "retryable", nil)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Service Unavailable", env.Error.Message)
	assert.Equal(t, "retryable", env.Error.Code)
}
