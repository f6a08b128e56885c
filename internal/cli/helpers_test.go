package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const ruleFixture = `{
	"rule": {
		"name": "high temperature",
		"key": %q,
		"actions": [{"url": %q}],
		"conditions": [{
			"trigger": {"name": "static", "arguments": ["gt", "30"]},
			"filter": {"and": [{"key": "thermostat"}, {"attributes": {"building": "A"}}]}
		}],
		"status": "enabled"
	},
	"alerts": "any"
}`

func ruleJSON(key, hook string) string {
	return fmt.Sprintf(ruleFixture, key, hook)
}

// runCLI executes the root command with args and returns stdout
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// runAgainst executes the root command pointed at a test server
func runAgainst(t *testing.T, handler http.HandlerFunc, args ...string) (string, error) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	flags := []string{"--host", u.Hostname(), "--port", u.Port(), "--insecure"}
	return runCLI(t, "", append(flags, args...)...)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

// decodeEnvelope parses the JSON output of a command
func decodeEnvelope(t *testing.T, out string) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}
