package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/dupcheck/internal/domain/auth"
	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/infra/config"
	apperrors "github.com/yanqian/dupcheck/pkg/errors"
)

const testSigningSecret = "router-test-signing-secret"

func TestRouter_PredictJSON(t *testing.T) {
	svc := &stubDedup{
		predictFn: func(ctx context.Context, req dedup.Request) (dedup.Response, error) {
			require.Equal(t, "how to learn go", req.Question1)
			require.Equal(t, "best way to learn go", req.Question2)
			return dedup.Response{Probability: 0.8, Duplicate: true, Result: dedup.ResultDuplicate, Source: dedup.SourceModel}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/predict", `{"question1":"how to learn go","question2":"best way to learn go"}`, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got dedup.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, dedup.ResultDuplicate, got.Result)
	require.Equal(t, 0.8, got.Probability)
}

func TestRouter_PredictForm(t *testing.T) {
	svc := &stubDedup{
		predictFn: func(ctx context.Context, req dedup.Request) (dedup.Response, error) {
			require.Equal(t, "a b", req.Question1)
			require.Empty(t, req.Question2)
			return dedup.Response{Result: dedup.ResultNotDuplicate}, nil
		},
	}

	form := url.Values{"question1": {"a b"}}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc, nil).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), dedup.ResultNotDuplicate)
}

func TestRouter_PredictInvalidJSON(t *testing.T) {
	recorder := performRequest(http.MethodPost, "/api/v1/predict", `{"question1":123}`, newRouterUnderTest(t, &stubDedup{}, nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_PredictDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: apperrors.Wrap(apperrors.CodeInvalidInput, "question exceeds 10 characters", nil), status: http.StatusBadRequest, code: "invalid_request"},
		{name: "model missing", err: apperrors.Wrap(apperrors.CodeModelUnavailable, "model is not loaded", nil), status: http.StatusServiceUnavailable, code: apperrors.CodeModelUnavailable},
		{name: "classifier failure", err: apperrors.Wrap(apperrors.CodePrediction, "classifier failed", nil), status: http.StatusInternalServerError, code: "prediction_failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubDedup{
				predictFn: func(ctx context.Context, req dedup.Request) (dedup.Response, error) {
					return dedup.Response{}, tc.err
				},
			}
			recorder := performRequest(http.MethodPost, "/api/v1/predict", `{}`, newRouterUnderTest(t, svc, nil))
			require.Equal(t, tc.status, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
		})
	}
}

func TestRouter_PredictBatch(t *testing.T) {
	svc := &stubDedup{
		batchFn: func(ctx context.Context, reqs []dedup.Request) ([]dedup.Response, error) {
			require.Len(t, reqs, 2)
			return []dedup.Response{{Question1: reqs[0].Question1}, {Question1: reqs[1].Question1}}, nil
		},
	}
	body := `{"pairs":[{"question1":"one","question2":"1"},{"question1":"two","question2":"2"}]}`
	recorder := performRequest(http.MethodPost, "/api/v1/predict/batch", body, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Results []dedup.Response `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Results, 2)
	require.Equal(t, "two", got.Results[1].Question1)
}

func TestRouter_HistoryLimit(t *testing.T) {
	var seen int
	svc := &stubDedup{
		historyFn: func(ctx context.Context, limit int) ([]dedup.PredictionRecord, error) {
			seen = limit
			return []dedup.PredictionRecord{}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/predictions?limit=5", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 5, seen)

	recorder = performRequest(http.MethodGet, "/api/v1/predictions?limit=abc", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_Health(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/healthz", "", newRouterUnderTest(t, &stubDedup{ready: true}, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok","modelLoaded":true}`, recorder.Body.String())
}

func TestRouter_AuthRequired(t *testing.T) {
	svc := &stubDedup{}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
	})

	recorder := performRequest(http.MethodPost, "/api/v1/predict", `{}`, server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	authCfg := auth.Config{Secret: testSigningSecret, Issuer: "dupcheck"}
	token, err := auth.Mint(authCfg, "crawler", []string{ScopePredict}, time.Hour)
	require.NoError(t, err)
	recorder = performAuthorizedRequest("/api/v1/predict", `{}`, token, server)
	require.Equal(t, http.StatusOK, recorder.Code)

	unscoped, err := auth.Mint(authCfg, "crawler", nil, time.Hour)
	require.NoError(t, err)
	recorder = performAuthorizedRequest("/api/v1/predict", `{}`, unscoped, server)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = performAuthorizedRequest("/api/v1/predict", `{}`, "not-a-jwt", server)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, apperrors.CodeInvalidToken, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubDedup{}, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	recorder := performRequest(http.MethodPost, "/api/v1/features", `{}`, server)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = performRequest(http.MethodPost, "/api/v1/features", `{}`, server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	svc := &stubDedup{
		predictFn: func(ctx context.Context, req dedup.Request) (dedup.Response, error) {
			if calls.Add(1) == 1 {
				return dedup.Response{}, apperrors.Wrap(apperrors.CodePrediction, "classifier failed", nil)
			}
			return dedup.Response{Result: dedup.ResultDuplicate}, nil
		},
	}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	})

	recorder := performRequest(http.MethodPost, "/api/v1/predict", `{"question1":"a","question2":"b"}`, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.EqualValues(t, 2, calls.Load())
	require.Equal(t, "2", recorder.Header().Get(retryAttemptHdr))
}

func TestRetryPolicy_ExcludesByPrefix(t *testing.T) {
	p := &retryPolicy{exclude: []string{"/api/v1/auth"}}
	require.False(t, p.applies(httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)))
	require.False(t, p.applies(httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil)))
	require.True(t, p.applies(httptest.NewRequest(http.MethodPost, "/api/v1/predict", nil)))
}

func TestRetryPolicy_BackoffIsCapped(t *testing.T) {
	p := &retryPolicy{base: 100 * time.Millisecond}
	require.Equal(t, 100*time.Millisecond, p.backoff(2))
	require.Equal(t, 200*time.Millisecond, p.backoff(3))
	require.Equal(t, retryMaxBackoff, p.backoff(20))
}

func TestRouter_DoesNotRetryMissingModel(t *testing.T) {
	var calls atomic.Int32
	svc := &stubDedup{
		predictFn: func(ctx context.Context, req dedup.Request) (dedup.Response, error) {
			calls.Add(1)
			return dedup.Response{}, apperrors.Wrap(apperrors.CodeModelUnavailable, "model is not loaded", nil)
		},
	}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	})

	recorder := performRequest(http.MethodPost, "/api/v1/predict", `{}`, server)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	require.EqualValues(t, 1, calls.Load())
}

func TestRouter_CORS(t *testing.T) {
	server := newRouterUnderTest(t, &stubDedup{}, func(cfg *config.Config) {
		cfg.HTTP.CORSOrigins = []string{"https://app.example.com/"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, corsMaxAge, rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestClient(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, "anonymous", requestClient(c))

	setClaims(c, auth.Claims{ClientID: "reporting", Scopes: []string{ScopePredict}})
	require.Equal(t, "reporting", requestClient(c))
	claims, ok := getClaims(c)
	require.True(t, ok)
	require.True(t, claims.HasScope(ScopePredict))
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func performAuthorizedRequest(path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc dedup.Service, mutate func(*config.Config)) *http.Server {
	t.Helper()
	logger := newTestLogger()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	authSvc := auth.NewService(auth.Config{
		Secret:          testSigningSecret,
		Issuer:          "dupcheck",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: time.Hour,
	}, auth.NewStaticRepository(nil), logger)
	return NewRouter(cfg, NewHandler(svc, logger), NewAuthHandler(authSvc, logger), logger)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubDedup struct {
	predictFn func(ctx context.Context, req dedup.Request) (dedup.Response, error)
	batchFn   func(ctx context.Context, reqs []dedup.Request) ([]dedup.Response, error)
	historyFn func(ctx context.Context, limit int) ([]dedup.PredictionRecord, error)
	ready     bool
}

func (s *stubDedup) Predict(ctx context.Context, req dedup.Request) (dedup.Response, error) {
	if s.predictFn != nil {
		return s.predictFn(ctx, req)
	}
	return dedup.Response{}, nil
}

func (s *stubDedup) PredictBatch(ctx context.Context, reqs []dedup.Request) ([]dedup.Response, error) {
	if s.batchFn != nil {
		return s.batchFn(ctx, reqs)
	}
	return nil, nil
}

func (s *stubDedup) Analyze(context.Context, dedup.Request) (dedup.AnalyzeResponse, error) {
	return dedup.AnalyzeResponse{}, nil
}

func (s *stubDedup) Normalize(_ context.Context, text string) (dedup.NormalizeResponse, error) {
	return dedup.NormalizeResponse{Text: text}, nil
}

func (s *stubDedup) History(ctx context.Context, limit int) ([]dedup.PredictionRecord, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubDedup) Similar(context.Context, dedup.Request, int) (dedup.SimilarResponse, error) {
	return dedup.SimilarResponse{}, nil
}

func (s *stubDedup) Ready() bool { return s.ready }

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
