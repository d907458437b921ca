package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/mod", AuthMiddleware(testSecret), RequireRole("user", "admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username"), "role": c.GetString("role")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid := jwt.MapClaims{"sub": "alice", "role": "USER", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", valid), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "alice", "role": "user", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "alice", "role": "guest"}), http.StatusForbidden},
		{"no role", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "alice"}), http.StatusForbidden},
		{"moderator", "Bearer " + signToken(t, testSecret, valid), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/mod", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			authRouter().ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthMiddlewareUsername(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mod", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "x", "username": "alice", "role": "admin"}))
	authRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"alice","role":"admin"}`, rec.Body.String())
}

func TestSanitizeMultipartInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", SanitizeMultipartInput(1<<20), func(c *gin.Context) {
		fh, err := c.FormFile("image")
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{
			"dto":   c.PostForm("sharedMediaCreateDto"),
			"title":   c.PostForm("title"),
			"encoded": c.PostForm("encoded"),
			"size":    fh.Size,
		})
	})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("sharedMediaCreateDto", `{"author":"<b>Max</b> & Co","title":"x","tournamentId":7}`))
	require.NoError(t, w.WriteField("title", `<script>alert(1)</script>Finals`))
	require.NoError(t, w.WriteField("encoded", `&lt;script&gt;alert(1)&lt;/script&gt;Finals`))
	fw, err := w.CreateFormFile("image", "a.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("<b>raw</b>"))
	require.NoError(t, w.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		DTO     string `json:"dto"`
		Title   string `json:"title"`
		Encoded string `json:"encoded"`
		Size    int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Finals", got.Title)
	assert.Equal(t, "Finals", got.Encoded)
	assert.Equal(t, int64(10), got.Size)

	var dto map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(got.DTO), &dto))
	assert.Equal(t, "Max & Co", dto["author"])
	assert.Equal(t, float64(7), dto["tournamentId"])
}

func TestSanitizeMultipartInputSkipsOtherBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/json", SanitizeMultipartInput(1<<20), func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/json", bytes.NewBufferString(`{"message":"<b>hi</b>"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"<b>hi</b>"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMaxBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/small", MaxBodySize(4), func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/small", bytes.NewBufferString(`{"a":"bcdefgh"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
