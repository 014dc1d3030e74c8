package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCORSConfig_Allows(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:      []string{"https://searchai.example.com"},
		AllowLocalhost:      true,
		AllowVercelPreviews: true,
	}
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://searchai.example.com", true},
		{"http://localhost:5173", true},
		{"http://localhost:8080", false},
		{"https://searchai-git-main.vercel.app", true},
		{"http://searchai.vercel.app", false},
		{"https://vercel.app.evil.com", false},
		{"https://evil.com", false},
	}
	for _, tt := range tests {
		if got := cfg.Allows(tt.origin); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	strict := CORSConfig{}
	if strict.Allows("http://localhost:3000") || strict.Allows("https://x.vercel.app") {
		t.Error("empty config must not allow localhost or previews")
	}
}

func TestCORS_PreflightAllowsCredentials(t *testing.T) {
	h := CORS(CORSConfig{AllowLocalhost: true, MaxAgeSec: 86400})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/history", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Max-Age = %q", got)
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/history", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

func TestJSONRecoverer_ReturnsEnvelope(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rr := httptest.NewRecorder()
	jsonRecoverer(zap.NewNop())(panicky).ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", rr.Code)
	}
	if msg := decodeErrorMessage(t, rr); msg != "Internal server error" {
		t.Errorf("message = %q", msg)
	}
}
