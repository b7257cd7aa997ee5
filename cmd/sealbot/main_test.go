package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmagro/seal-blob-bot/internal/config"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// chainStub is a fullnode that builds "transactions" whose bytes are just
// the Move function name, then executes them without checking signatures.
type chainStub struct {
	mu    sync.Mutex
	calls []string
}

func (c *chainStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	switch req.Method {
	case "unsafe_moveCall":
		var signer, module, function string
		json.Unmarshal(req.Params[0], &signer)
		json.Unmarshal(req.Params[2], &module)
		json.Unmarshal(req.Params[3], &function)
		tx := base64.StdEncoding.EncodeToString([]byte(module + "::" + function + "|" + signer))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":{"txBytes":%q}}`, tx)

	case "sui_executeTransactionBlock":
		var tx string
		json.Unmarshal(req.Params[0], &tx)
		raw, _ := base64.StdEncoding.DecodeString(tx)
		name, signer, _ := strings.Cut(string(raw), "|")

		c.mu.Lock()
		c.calls = append(c.calls, name)
		n := len(c.calls)
		c.mu.Unlock()

		created := "[]"
		if strings.Contains(name, "create_") {
			created = fmt.Sprintf(`[{"owner":{"Shared":{"initial_shared_version":1}},"reference":{"objectId":"0xshared%d"}},`+
				`{"owner":{"AddressOwner":%q},"reference":{"objectId":"0xentry%d"}}]`, n, signer, n)
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":{"digest":"d%d","effects":{"status":{"status":"success"},"created":%s}}}`, n, created)
	}
}

func (c *chainStub) count(function string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, name := range c.calls {
		if strings.HasSuffix(name, "::"+function) {
			n++
		}
	}
	return n
}

type env struct {
	dir     string
	cfgPath string
	chain   *chainStub
	puts    *int
}

func setupEnv(t *testing.T, withPK bool) *env {
	t.Helper()
	t.Setenv(config.RPCURLEnv, "")

	chain := &chainStub{}
	node := httptest.NewServer(chain)
	t.Cleanup(node.Close)

	var mu sync.Mutex
	puts := 0
	pub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		puts++
		n := puts
		mu.Unlock()
		fmt.Fprintf(w, `{"newlyCreated":{"blobObject":{"blobId":"blob-%d"}}}`, n)
	}))
	t.Cleanup(pub.Close)

	dir := t.TempDir()
	if withPK {
		writeTestFile(t, filepath.Join(dir, "pk.txt"), testKey+"\n")
	}
	writeTestFile(t, filepath.Join(dir, "image.jpg"), "jpegbytes")

	cfg := fmt.Sprintf(`rpc_url: %s
publishers:
  - name: local
    url: %s/v1/blobs
upload:
  max_attempts: 2
  delay: 1ms
files:
  wallets: %s
  pk: %s
  proxies: %s
  image: %s
`, node.URL, pub.URL,
		filepath.Join(dir, "wallets.txt"),
		filepath.Join(dir, "pk.txt"),
		filepath.Join(dir, "proxies.txt"),
		filepath.Join(dir, "image.jpg"))
	cfgPath := filepath.Join(dir, "sealbot.yaml")
	writeTestFile(t, cfgPath, cfg)

	return &env{dir: dir, cfgPath: cfgPath, chain: chain, puts: &puts}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out)
	defer a.close()
	cmd := a.rootCmd()
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunAllowlistWithFlags(t *testing.T) {
	e := setupEnv(t, true)
	reportDir := filepath.Join(e.dir, "reports")

	out, err := execute(t, "",
		"--config", e.cfgPath,
		"run", "--action", "allowlist", "--image", filepath.Join(e.dir, "image.jpg"),
		"--count", "1", "--addresses", "0x1, 0x2,0x3", "--yes",
		"--json", "--report-dir", reportDir,
	)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	if got := e.chain.count("create_allowlist_entry"); got != 1 {
		t.Errorf("creates = %d", got)
	}
	if got := e.chain.count("add"); got != 4 {
		t.Errorf("adds = %d, want 4", got)
	}
	if got := e.chain.count("publish"); got != 1 {
		t.Errorf("publishes = %d", got)
	}
	if *e.puts != 1 {
		t.Errorf("uploads = %d", *e.puts)
	}
	for _, want := range []string{"Using a single wallet", "Summary for wallet 1", "blob-1", "All tasks completed successfully!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	entries, err := os.ReadDir(reportDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("report dir: %v, %d entries", err, len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(reportDir, entries[0].Name()))
	var report struct {
		RunID   string `json:"run_id"`
		Action  string `json:"action"`
		Wallets []struct {
			Allowlists []struct {
				BlobID string `json:"blob_id"`
			} `json:"allowlists"`
		} `json:"wallets"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.RunID == "" || report.Action != "allowlist" || len(report.Wallets) != 1 || report.Wallets[0].Allowlists[0].BlobID != "blob-1" {
		t.Errorf("report = %s", data)
	}
}

func TestRunSubscriptionInteractive(t *testing.T) {
	e := setupEnv(t, true)

	// action 2, local image, invalid count
	out, err := execute(t, "2\n2\nabc\n", "--config", e.cfgPath, "run")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	if !strings.Contains(out, "Invalid number. Using default value of 1.") {
		t.Errorf("missing invalid number warning:\n%s", out)
	}
	if e.chain.count("create_service_entry") != 1 || e.chain.count("publish") != 1 {
		t.Errorf("calls = %v", e.chain.calls)
	}
	if e.chain.count("add") != 0 {
		t.Error("subscription run must not add allowlist members")
	}
}

func TestRunWalletsFileContinuesPastBadKey(t *testing.T) {
	e := setupEnv(t, false)
	writeTestFile(t, filepath.Join(e.dir, "wallets.txt"), "not a key\n"+testKey+"\n")

	out, err := execute(t, "", "--config", e.cfgPath,
		"run", "--action", "1", "--image", filepath.Join(e.dir, "image.jpg"), "--all-wallets", "--yes")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Wallet 1 failed") {
		t.Errorf("first wallet failure not reported:\n%s", out)
	}
	if e.chain.count("publish") != 1 {
		t.Errorf("second wallet did not complete: %v", e.chain.calls)
	}
	if !strings.Contains(out, "1 of 2 wallets failing") {
		t.Errorf("missing failure summary:\n%s", out)
	}
}

func TestRunWithoutWallet(t *testing.T) {
	e := setupEnv(t, false)

	out, err := execute(t, "", "--config", e.cfgPath, "run", "--yes")
	if !errors.Is(err, errNoWallet) {
		t.Fatalf("err = %v, want errNoWallet", err)
	}
	if !strings.Contains(out, "Wallet not found") {
		t.Errorf("output = %s", out)
	}
}

func TestRunMissingLocalImage(t *testing.T) {
	e := setupEnv(t, true)
	os.Remove(filepath.Join(e.dir, "image.jpg"))

	_, err := execute(t, "1\n2\n", "--config", e.cfgPath, "run")
	if !errors.Is(err, errImageMissing) {
		t.Fatalf("err = %v, want errImageMissing", err)
	}
	if len(e.chain.calls) != 0 {
		t.Errorf("chain called before image check: %v", e.chain.calls)
	}
}

func TestRunInvalidAction(t *testing.T) {
	for _, args := range [][]string{
		{"run", "--action", "3", "--yes"},
		{"run", "--action", "publish", "--yes"},
	} {
		t.Run(args[2], func(t *testing.T) {
			e := setupEnv(t, true)
			out, err := execute(t, "", append([]string{"--config", e.cfgPath}, args...)...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(out, "Invalid choice. Please enter 1 or 2.") {
				t.Errorf("missing invalid choice message:\n%s", out)
			}
			if strings.Contains(out, "Starting") {
				t.Errorf("workflow started:\n%s", out)
			}
			if len(e.chain.calls) != 0 || *e.puts != 0 {
				t.Errorf("chain calls = %v, uploads = %d", e.chain.calls, *e.puts)
			}
		})
	}
}

func TestWalletsCommand(t *testing.T) {
	e := setupEnv(t, true)

	out, err := execute(t, "", "--config", e.cfgPath, "wallets")
	if err != nil {
		t.Fatalf("wallets: %v", err)
	}
	if !strings.Contains(out, "0x160179a1565ea7cff27ead23f54cc7f50893bf58155cd7285156e57afa31c3ac") {
		t.Errorf("address missing:\n%s", out)
	}
	if strings.Contains(out, testKey) {
		t.Error("private key printed")
	}
}

func TestProxiesCommandMasksCredentials(t *testing.T) {
	e := setupEnv(t, true)
	writeTestFile(t, filepath.Join(e.dir, "proxies.txt"), "10.0.0.1:8080:longusername:secretpassword\n10.0.0.2:3128\n")

	out, err := execute(t, "", "--config", e.cfgPath, "proxies")
	if err != nil {
		t.Fatalf("proxies: %v", err)
	}
	if !strings.Contains(out, "Loaded 2 proxies") || !strings.Contains(out, "10.0.0.2") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "secretpassword") || strings.Contains(out, "longusername") {
		t.Errorf("credentials leaked:\n%s", out)
	}
}

func TestPublishersCommand(t *testing.T) {
	e := setupEnv(t, true)

	out, err := execute(t, "", "--config", e.cfgPath, "publishers")
	if err != nil {
		t.Fatalf("publishers: %v", err)
	}
	if !strings.Contains(out, "HTTP 405") || !strings.Contains(out, "1 of 1 publishers reachable") {
		t.Errorf("output:\n%s", out)
	}
}

func TestPublishersCommandSamples(t *testing.T) {
	e := setupEnv(t, true)

	out, err := execute(t, "", "--config", e.cfgPath, "publishers", "--samples", "3")
	if err != nil {
		t.Fatalf("publishers: %v", err)
	}
	for _, want := range []string{"P95", "100%", "3 rounds"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
