package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/session"
)

func fakeGitHub(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/go-chi/chi":
			fmt.Fprint(w, `{"id":1,"name":"chi","full_name":"go-chi/chi","owner":{"login":"go-chi"},"language":"Go","stargazers_count":5}`)
		case "/repos/uber-go/zap":
			fmt.Fprint(w, `{"id":2,"name":"zap","full_name":"uber-go/zap","owner":{"login":"uber-go"},"language":"Go"}`)
		case "/search/repositories":
			fmt.Fprint(w, `{"total_count":1,"items":[{"id":1,"full_name":"go-chi/chi","language":"Go"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

// setupEnv points the CLI at a throwaway sqlite file and a fake GitHub.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GITMARK_STORAGE", "sqlite")
	t.Setenv("GITMARK_SQLITE_PATH", filepath.Join(dir, "gitmark.db"))
	t.Setenv("GITMARK_PROFILE", "test")
	t.Setenv("GITMARK_REDIS_ADDR", "")
	t.Setenv("GITMARK_GITHUB_API_URL", fakeGitHub(t))
	return dir
}

// execute runs the root command with fresh flag state.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	authName, authEmail, authPassword = "", "", ""
	whoamiJSON, listJSON, verbose = false, false, false
	exportPath, searchPage = "", 1
	stdinReader = nil

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := execute(t, stdin, args...)
	if err != nil {
		t.Fatalf("gitmark %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestAuthCommands(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "", "signup", "--name", "Alice", "--email", "a@x.com", "--password", "pw")
	if !strings.Contains(out, "Signed up as Alice <a@x.com>") {
		t.Errorf("signup output = %q", out)
	}

	// A new process sees the persisted session.
	out = mustExecute(t, "", "whoami", "--json")
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("whoami --json is not JSON: %v\n%s", err, out)
	}
	if snap.Identity == nil || snap.Identity.Email != "a@x.com" {
		t.Errorf("whoami identity = %+v, want a@x.com", snap.Identity)
	}

	mustExecute(t, "", "logout")
	if out := mustExecute(t, "", "whoami"); !strings.Contains(out, "Not signed in") {
		t.Errorf("whoami after logout = %q", out)
	}

	// Credentials are prompted when flags are missing.
	out = mustExecute(t, "a@x.com\npw\n", "login")
	if !strings.Contains(out, "Signed in as Alice") {
		t.Errorf("login output = %q", out)
	}

	_, err := execute(t, "", "login", "--email", "a@x.com", "--password", "nope")
	if err == nil || !strings.Contains(err.Error(), domain.ErrInvalidCredentials.Error()) {
		t.Errorf("login with a wrong password error = %v", err)
	}
}

func TestBookmarkCommands(t *testing.T) {
	dir := setupEnv(t)

	if _, err := execute(t, "", "bookmarks", "list"); err == nil {
		t.Error("list without a session should fail")
	}

	mustExecute(t, "", "signup", "--name", "Alice", "--email", "a@x.com", "--password", "pw")

	if out := mustExecute(t, "", "bookmarks", "add", "go-chi/chi"); !strings.Contains(out, "go-chi/chi (id 1)") {
		t.Errorf("add output = %q", out)
	}
	if _, err := execute(t, "", "bookmarks", "add", "go-chi/chi"); err == nil {
		t.Error("adding the same repository twice should fail")
	}
	if _, err := execute(t, "", "bookmarks", "add", "nobody/nothing"); err == nil {
		t.Error("adding an unknown repository should fail")
	}

	csvPath := filepath.Join(dir, "import.csv")
	csv := "full_name,date\nuber-go/zap,2024-01-02\nnobody/nothing,\ngo-chi/chi,\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := mustExecute(t, "", "bookmarks", "import", csvPath); !strings.Contains(out, "Imported 1 bookmark") {
		t.Errorf("import output = %q", out)
	}

	out := mustExecute(t, "", "bookmarks", "list", "--json")
	var list []domain.BookmarkEntry
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("list --json is not JSON: %v\n%s", err, out)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("list = %+v, want ids [1 2]", list)
	}

	if out := mustExecute(t, "", "search", "repos", "chi"); !strings.Contains(out, "★") {
		t.Errorf("search output should star bookmarked repositories:\n%s", out)
	}

	exported := filepath.Join(dir, "bookmarks.yaml")
	mustExecute(t, "", "bookmarks", "export", "-o", exported)
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("export did not write a file: %v", err)
	}
	if !strings.Contains(string(data), "go-chi/chi") {
		t.Errorf("export = %s", data)
	}

	mustExecute(t, "", "bookmarks", "remove", "1")
	if out := mustExecute(t, "", "bookmarks", "list"); strings.Contains(out, "go-chi/chi") || !strings.Contains(out, "uber-go/zap") {
		t.Errorf("list after remove = %q", out)
	}
	if out := mustExecute(t, "", "bookmarks", "remove", "1"); !strings.Contains(out, "not bookmarked") {
		t.Errorf("second remove output = %q", out)
	}
}

func TestScaleBar(t *testing.T) {
	tests := []struct {
		count, peak, want int
	}{
		{3, 10, 3},
		{40, 40, 40},
		{80, 80, 40},
		{1, 1000, 1},
		{500, 1000, 20},
	}
	for _, tt := range tests {
		if got := scaleBar(tt.count, tt.peak, 40); got != tt.want {
			t.Errorf("scaleBar(%d, %d) = %d, want %d", tt.count, tt.peak, got, tt.want)
		}
	}
}
