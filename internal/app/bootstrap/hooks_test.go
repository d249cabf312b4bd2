package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skms/website/config"
	"github.com/skms/website/internal/app/features/contact"
	"github.com/skms/website/internal/app/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func baseValues() config.AppConfigValues {
	return config.AppConfigValues{
		"mail_transport":            "smtp",
		"smtp_user":                 "site@skms.example",
		"smtp_pass":                 "app-password",
		"smtp_host":                 "smtp.gmail.com",
		"smtp_port":                 587,
		"smtp_insecure_skip_verify": false,
		"business_email":            "",
		"mail_from":                 "",
		"ses_region":                "us-east-1",
		"ses_access_key_id":         "",
		"ses_secret_access_key":     "",
		"dispatch_timeout":          "30s",
		"static_dir":                "",
	}
}

func TestAppConfigFrom(t *testing.T) {
	vals := baseValues()
	vals["dispatch_timeout"] = "5"
	cfg, err := appConfigFrom(vals)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, "site@skms.example", cfg.Mail.Sender())
	assert.Equal(t, contact.Addresses{Sender: "site@skms.example", Business: "site@skms.example"}, cfg.Mail.Addresses())
	assert.Empty(t, cfg.Mail.MissingCredentials())
}

func TestAppConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown transport", "mail_transport", "pigeon"},
		{"empty host", "smtp_host", ""},
		{"bad port", "smtp_port", 70000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := baseValues()
			vals[tt.key] = tt.val
			_, err := appConfigFrom(vals)
			assert.Error(t, err)
		})
	}
}

func TestMailConfig_Addresses(t *testing.T) {
	m := MailConfig{SMTPUser: "user@gmail.com", MailFrom: "noreply@skms.example", BusinessEmail: "owner@skms.example"}
	assert.Equal(t, contact.Addresses{Sender: "noreply@skms.example", Business: "owner@skms.example"}, m.Addresses())
}

func TestMailConfig_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  MailConfig
		want []string
	}{
		{"smtp complete", MailConfig{Transport: "smtp", SMTPUser: "u", SMTPPass: "p"}, nil},
		{"smtp no pass", MailConfig{Transport: "smtp", SMTPUser: "u"}, []string{"SMTP_PASS"}},
		{"smtp nothing", MailConfig{Transport: "smtp"}, []string{"SMTP_USER", "SMTP_PASS"}},
		{"ses complete", MailConfig{Transport: "ses", SESAccessKeyID: "id", SESSecretAccessKey: "s", MailFrom: "f@x.co"}, nil},
		{"ses sender from smtp_user", MailConfig{Transport: "ses", SESAccessKeyID: "id", SESSecretAccessKey: "s", SMTPUser: "u@x.co"}, nil},
		{"ses nothing", MailConfig{Transport: "ses"}, []string{"SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "MAIL_FROM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.MissingCredentials())
		})
	}
}

func TestFinishConfig_MissingCredentials(t *testing.T) {
	vals := baseValues()
	vals["smtp_pass"] = ""

	t.Run("prod fails fast", func(t *testing.T) {
		_, _, err := finishConfig(zap.NewNop(), &config.CoreConfig{Env: "prod"}, vals)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SMTP_PASS")
	})

	t.Run("dev continues", func(t *testing.T) {
		_, cfg, err := finishConfig(zap.NewNop(), &config.CoreConfig{Env: "dev"}, vals)
		require.NoError(t, err)
		assert.Equal(t, []string{"SMTP_PASS"}, cfg.Mail.MissingCredentials())

		deps, err := ConnectTransport(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, deps.Transport)
	})
}

func TestConnectTransport_SMTP(t *testing.T) {
	cfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)

	deps, err := ConnectTransport(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTPTransport{}, deps.Transport)
}

type stubTransport struct {
	verifyErr error
	sent      atomic.Int32
}

func (s *stubTransport) Verify(context.Context) error { return s.verifyErr }

func (s *stubTransport) Send(context.Context, mailer.Message) error {
	s.sent.Add(1)
	return nil
}

func testCore() *config.CoreConfig {
	cfg := &config.CoreConfig{Env: "dev"}
	cfg.MaxRequestBodyBytes = 64 << 10
	return cfg
}

func TestBuildHandler_Routes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>SKMS</h1>"), 0o644))

	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)
	appCfg.StaticDir = dir

	stub := &stubTransport{}
	h, err := BuildHandler(testCore(), appCfg, Deps{Transport: stub}, zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/version", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodOptions, contact.Path, "", http.StatusOK},
		{http.MethodGet, contact.Path, "", http.StatusMethodNotAllowed},
		{http.MethodPost, contact.Path, `{"name":"Ann","email":"ann@example.com","message":"hello there world"}`, http.StatusOK},
		{http.MethodPost, "/health", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, int32(2), stub.sent.Load())
}

func TestBuildHandler_OversizedContactBody(t *testing.T) {
	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)
	stub := &stubTransport{}
	h, err := BuildHandler(testCore(), appCfg, Deps{Transport: stub}, zap.NewNop())
	require.NoError(t, err)

	body := `{"name":"Ann","email":"ann@example.com","message":"` + strings.Repeat("x", 70<<10) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, contact.Path, strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"success":false,"error":"`+contact.MsgMissingFields+`"}`, rec.Body.String())
	assert.Zero(t, stub.sent.Load())
}

func TestBuildHandler_OversizedBodyElsewhere(t *testing.T) {
	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)
	h, err := BuildHandler(testCore(), appCfg, Deps{}, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", strings.NewReader(strings.Repeat("x", 70<<10))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBuildHandler_ReadyWithoutTransport(t *testing.T) {
	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)

	h, err := BuildHandler(testCore(), appCfg, Deps{}, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildHandler_ReadyVerifyFails(t *testing.T) {
	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)

	h, err := BuildHandler(testCore(), appCfg, Deps{Transport: &stubTransport{verifyErr: errors.New("535")}}, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildHandler_BadStaticDir(t *testing.T) {
	appCfg, err := appConfigFrom(baseValues())
	require.NoError(t, err)
	appCfg.StaticDir = filepath.Join(t.TempDir(), "missing")

	_, err = BuildHandler(testCore(), appCfg, Deps{}, zap.NewNop())
	assert.Error(t, err)
}
