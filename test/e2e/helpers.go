//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/hrassist/internal/testutil"
)

const adminKey = "e2e-admin-key"

const sampleCorpus = `canonical_question,short_answer,tags
How many vacation days do I get?,Full-time employees receive 21 days of earned leave per calendar year.,leave
How do I apply for leave?,Submit a leave request in the HR portal at least five working days in advance.,leave
What does the medical insurance cover?,Group medical insurance covers you and your family up to Rs 5 lakh per year.,benefits
When is salary credited?,Salary is credited on the last working day of every month.,compensation
`

var (
	buildOnce sync.Once
	binDir    string
	buildErr  error
)

// E2ETestEnv is one running hrassistd with its data directory.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	DataDir    string
	CorpusPath string
	ServerURL  string
	HTTPClient *http.Client

	daemon *exec.Cmd
	logs   *bytes.Buffer
}

// SetupE2EEnv builds the binaries once, writes a sample corpus and starts
// hrassistd with the base settings plus extraEnv.
func SetupE2EEnv(t *testing.T, extraEnv ...string) *E2ETestEnv {
	t.Helper()

	buildOnce.Do(buildBinaries)
	if buildErr != nil {
		t.Fatalf("failed to build binaries: %v", buildErr)
	}

	dataDir := t.TempDir()
	corpusPath := filepath.Join(dataDir, "qa_dataset.csv")
	if err := os.WriteFile(corpusPath, []byte(sampleCorpus), 0o644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	env := &E2ETestEnv{
		T:          t,
		Ctx:        context.Background(),
		DataDir:    dataDir,
		CorpusPath: corpusPath,
		ServerURL:  fmt.Sprintf("http://localhost:%d", port),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		logs:       &bytes.Buffer{},
	}

	cmd := exec.Command(filepath.Join(binDir, "hrassistd"), "serve")
	cmd.Dir = dataDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("HRASSIST_PORT=%d", port),
		"HRASSIST_CORPUS_PATH="+corpusPath,
		"HRASSIST_INDEX_DIR="+filepath.Join(dataDir, "index"),
		"HRASSIST_TICKETS_PATH="+filepath.Join(dataDir, "tickets.json"),
		"HRASSIST_EMBEDDING_PROVIDER=none",
		"HRASSIST_ADMIN_API_KEY="+adminKey,
	)
	cmd.Env = append(cmd.Env, extraEnv...)
	cmd.Stdout = env.logs
	cmd.Stderr = env.logs

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start hrassistd: %v", err)
	}
	env.daemon = cmd
	t.Cleanup(env.Cleanup)

	env.waitForServer(20 * time.Second)
	return env
}

// Cleanup stops the daemon and dumps its log when the test failed.
func (e *E2ETestEnv) Cleanup() {
	if e.daemon != nil && e.daemon.Process != nil {
		e.daemon.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() {
			e.daemon.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			e.daemon.Process.Kill()
		}
		e.daemon = nil
	}
	if e.T.Failed() {
		e.T.Logf("hrassistd log:\n%s", e.logs.String())
	}
}

func buildBinaries() {
	binDir, buildErr = os.MkdirTemp("", "hrassist-e2e-*")
	if buildErr != nil {
		return
	}
	for _, name := range []string{"hrassistd", "hrassist"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(binDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("build %s: %w\n%s", name, err, out)
			return
		}
	}
}

// RunHRAssist runs the client CLI against this environment's server.
func (e *E2ETestEnv) RunHRAssist(extraEnv []string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(binDir, "hrassist"), args...)
	cmd.Dir = e.DataDir
	cmd.Env = append(os.Environ(),
		"HRASSIST_API_URL="+e.ServerURL,
		"XDG_CONFIG_HOME="+filepath.Join(e.DataDir, "config"),
		"HOME="+e.DataDir,
	)
	cmd.Env = append(cmd.Env, extraEnv...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
}

func (e *E2ETestEnv) Get(path string, headers map[string]string) *APIResponse {
	return e.doRequest(http.MethodGet, path, nil, headers)
}

func (e *E2ETestEnv) Post(path string, body interface{}, headers map[string]string) *APIResponse {
	return e.doRequest(http.MethodPost, path, body, headers)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, headers map[string]string) *APIResponse {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, apiResp); err != nil {
			e.T.Fatalf("failed to parse response %q: %v", raw, err)
		}
	}
	return apiResp
}

// Decode unmarshals the data envelope into out.
func (r *APIResponse) Decode(t *testing.T, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, out); err != nil {
		t.Fatalf("failed to decode data %s: %v", r.Data, err)
	}
}

func (e *E2ETestEnv) waitForServer(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(e.ServerURL + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("server did not start within %v\n%s", timeout, e.logs.String())
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// postgresEnv starts pgvector and returns the daemon settings for it.
func postgresEnv(ctx context.Context, t *testing.T) (*testutil.PostgresContainer, []string) {
	pgC := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pgC.Terminate(ctx) })
	return pgC, []string{"HRASSIST_DATABASE_URL=" + pgC.ConnectionString()}
}

// rustfsEnv starts RustFS and returns the daemon settings for it.
func rustfsEnv(ctx context.Context, t *testing.T, bucket string) (*testutil.RustFSContainer, []string) {
	s3C := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { s3C.Terminate(ctx) })
	return s3C, []string{
		"HRASSIST_S3_ENDPOINT=" + s3C.Endpoint(),
		"HRASSIST_S3_ACCESS_KEY_ID=" + testutil.RustFSAccessKey,
		"HRASSIST_S3_SECRET_ACCESS_KEY=" + testutil.RustFSSecretKey,
		"HRASSIST_S3_BUCKET=" + bucket,
	}
}
