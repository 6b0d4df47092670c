package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func mustToken(t *testing.T, secret []byte, subject string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func newRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(secret))
	r.POST("/v1/envelopes", func(c *gin.Context) {
		c.String(http.StatusAccepted, Subject(c))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	valid := mustToken(t, testSecret, "gateway-1", time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		secret     []byte
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "disabled without secret", secret: nil, wantStatus: http.StatusAccepted},
		{name: "missing header", secret: testSecret, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", secret: testSecret, header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", secret: testSecret, header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			secret:     testSecret,
			header:     "Bearer " + mustToken(t, []byte("other"), "gateway-1", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			secret:     testSecret,
			header:     "Bearer " + mustToken(t, testSecret, "gateway-1", time.Now().Add(-time.Minute)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing subject",
			secret:     testSecret,
			header:     "Bearer " + mustToken(t, testSecret, "", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{name: "valid", secret: testSecret, header: "Bearer " + valid, wantStatus: http.StatusAccepted, wantBody: "gateway-1"},
		{name: "case-insensitive scheme", secret: testSecret, header: "bearer " + valid, wantStatus: http.StatusAccepted, wantBody: "gateway-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/envelopes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			newRouter(tc.secret).ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusUnauthorized {
				require.Contains(t, rec.Body.String(), `"error_type":"unauthorized"`)
				require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
			if tc.wantBody != "" {
				require.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestParseJWT_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "gateway-1"}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = ParseJWT(signed, testSecret)
	require.Error(t, err)

	_, err = ParseJWT("", testSecret)
	require.ErrorContains(t, err, "empty token")
	_, err = ParseJWT(signed, nil)
	require.ErrorContains(t, err, "empty secret")
}
