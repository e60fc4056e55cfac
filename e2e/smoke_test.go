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
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestE2ESmoke_FederationSample(t *testing.T) {
	if os.Getenv("DELEGATEHOIST_E2E") == "" {
		t.Skip("set DELEGATEHOIST_E2E=1 to run the CLI smoke test")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go not found in PATH")
	}

	repoRoot := findRepoRoot(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	binary := filepath.Join(t.TempDir(), "delegatehoist")
	runOrFail(t, ctx, repoRoot, nil, "go", "build", "-o", binary, ".")

	optionsPath := filepath.Join(repoRoot, "examples", "federation", "delegatehoist.yaml")
	snapshotPath := filepath.Join(repoRoot, "examples", "federation", "home-client.yaml")
	outPath := filepath.Join(t.TempDir(), "home-client.out.yaml")

	out := runOrFail(t, ctx, repoRoot, cleanEnv(), binary, "run",
		"--config", optionsPath,
		"--snapshot", snapshotPath,
		"--passes", "2",
		"--write", outPath,
		"-o", "json",
	)

	var res runResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode run output: %v\n%s", err, out)
	}
	if len(res.Passes) != 2 || res.Passes[0].Result != "changed" || res.Passes[1].Result != "converged" {
		t.Fatalf("unexpected passes: %+v", res.Passes)
	}

	got := map[string][]string{}
	for _, c := range res.Graph.Chunks {
		got[c.Name] = c.Modules
	}
	want := map[string][]string{
		"webpack-runtime": {
			"webpack/container/reference/checkout",
			"./delegate-module.js?remote=shop@http://localhost:3001/_next/static/chunks/remoteEntry.js",
			"./components/Header.js",
			`container entry (home) [["./Header","./components/Header.js"]]`,
			"./node_modules/react/index.js",
			"./src/bootstrap.js?internal-delegate-hoist",
			"./node_modules/lodash-es/lodash.js",
		},
		"home_remote": {
			`container entry (home) [["./Header","./components/Header.js"]]`,
			"./components/Header.js",
			"webpack/container/reference/checkout",
			"./delegate-module.js?remote=shop@http://localhost:3001/_next/static/chunks/remoteEntry.js",
		},
		"home-main":        nil,
		"home-pages-index": {"./pages/index.js"},
		"vendors":          {"./node_modules/lodash-es/lodash.js"},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("unexpected chunk graph:\nwant %v\ngot  %v", want, got)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected --write output: %v", err)
	}

	// A second run over the written snapshot must be a fixed point.
	again := runOrFail(t, ctx, repoRoot, cleanEnv(), binary, "run",
		"--config", optionsPath,
		"--snapshot", outPath,
		"-o", "json",
	)
	var second runResult
	if err := json.Unmarshal([]byte(again), &second); err != nil {
		t.Fatalf("decode second run output: %v\n%s", err, again)
	}
	if len(second.Passes) != 1 || second.Passes[0].Result != "converged" {
		t.Fatalf("expected converged pass over written snapshot, got %+v", second.Passes)
	}

	// Watch mode serves plugin metrics.
	localPort := pickFreePort(t)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()

	watchCmd := exec.CommandContext(watchCtx, binary, "watch",
		"--config", optionsPath,
		"--snapshot", snapshotPath,
		fmt.Sprintf("--metrics-bind-address=127.0.0.1:%d", localPort),
	)
	watchCmd.Dir = repoRoot
	watchCmd.Env = cleanEnv()
	var watchOut bytes.Buffer
	watchCmd.Stdout = &watchOut
	watchCmd.Stderr = &watchOut
	if err := watchCmd.Start(); err != nil {
		t.Fatalf("start watch: %v", err)
	}
	t.Cleanup(func() {
		watchCancel()
		_ = watchCmd.Wait()
	})

	httpClient := &http.Client{Timeout: 2 * time.Second}
	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", localPort)

	deadline := time.Now().Add(time.Minute)
	for {
		if time.Now().After(deadline) {
			t.Logf("watch output:\n%s", watchOut.String())
			t.Fatalf("timeout waiting for pass metrics at %s", url)
		}

		resp, err := httpClient.Get(url)
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if strings.Contains(string(body), `delegatehoist_passes_total{result="changed"} 1`) &&
				strings.Contains(string(body), "delegatehoist_delegates_discovered 2") {
				return
			}
		}

		time.Sleep(500 * time.Millisecond)
	}
}

type runResult struct {
	Passes []struct {
		Pass   int64  `json:"pass"`
		Result string `json:"result"`
	} `json:"passes"`
	Graph struct {
		Chunks []struct {
			Name    string   `json:"name"`
			Modules []string `json:"modules"`
		} `json:"chunks"`
	} `json:"graph"`
}

// cleanEnv drops DELEGATEHOIST_* overrides so the sample options apply as written.
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "DELEGATEHOIST_") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func pickFreePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// e2e/smoke_test.go -> repo root
	return filepath.Clean(filepath.Join(filepath.Dir(file), ".."))
}

func runOrFail(t *testing.T, ctx context.Context, dir string, env []string, name string, args ...string) string {
	t.Helper()

	out, err := runOut(ctx, dir, env, name, args...)
	if err != nil {
		t.Fatalf("%s %s failed: %v\n%s", name, strings.Join(args, " "), err, out)
	}
	return out
}

func runOut(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return stdout.String() + stderr.String(), err
	}
	return stdout.String(), nil
}
