package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/arka/internal/models"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"flags first", []string{"--output", "json", "tarif"}, []string{"--output", "json", "tarif"}},
		{"flags after question", []string{"tarif", "dermaga", "--output", "json"}, []string{"--output", "json", "tarif", "dermaga"}},
		{"no flags", []string{"jam", "operasional"}, []string{"jam", "operasional"}},
		{"empty", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("reorderArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"Berapa", "tarif", "jasa", "dermaga?"}, "Berapa tarif jasa dermaga?"},
		{[]string{"Jam operasional terminal?"}, "Jam operasional terminal?"},
		{[]string{" "}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := buildQuestion(tt.args); got != tt.want {
			t.Errorf("buildQuestion(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 8080
retrieval:
  top_k: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug || cfg.Server.Port != 8080 || cfg.Retrieval.TopK != 3 {
		t.Errorf("unexpected config: debug=%v port=%d top_k=%d", cfg.Debug, cfg.Server.Port, cfg.Retrieval.TopK)
	}
}

func TestLoadConfig_defaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want built-in defaults", resolved)
	}
	if cfg.Server.Port != 5000 || cfg.Storage.Collection != "pelindo_docs" || cfg.Retrieval.TopK != 5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "arka.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  vector_path: "vectors"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.VectorPath != filepath.Join(dir, "vectors") {
		t.Errorf("vector path = %s, want it relative to the config file", cfg.Storage.VectorPath)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestAskViaHTTP(t *testing.T) {
	var gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			http.NotFound(w, r)
			return
		}
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotMessage = req.Message
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: "Terminal beroperasi 24 jam."})
	}))
	defer srv.Close()

	resp, err := askViaHTTP(srv.URL+"/", "Jam operasional?")
	if err != nil {
		t.Fatal(err)
	}
	if gotMessage != "Jam operasional?" {
		t.Errorf("server received %q", gotMessage)
	}
	if resp.Response != "Terminal beroperasi 24 jam." {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestAskViaHTTP_errorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Layanan belum terinisialisasi"}`))
	}))
	defer srv.Close()

	_, err := askViaHTTP(srv.URL, "halo")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "Layanan belum terinisialisasi") {
		t.Errorf("error = %v", err)
	}
}

func TestStatusViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(models.Status{Collection: "pelindo_docs", Ready: true, Chunks: 42})
	}))
	defer srv.Close()

	st, err := statusViaHTTP(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if st.Collection != "pelindo_docs" || !st.Ready || st.Chunks != 42 {
		t.Errorf("status = %+v", st)
	}
}
