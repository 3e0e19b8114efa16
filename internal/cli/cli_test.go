package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIOutput(t, stdin, args...)
	return out, err
}

// runCLIOutput executes the root command with a quiet config file, captures
// stdout and stderr, and resets the send flags afterwards.
func runCLIOutput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("MESSAGE_PREFIX", "")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	t.Cleanup(func() {
		for _, name := range []string{"file", "webhook-url", "prefix"} {
			_ = sendCmd.Flags().Set(name, "")
		}
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func okWebhook(t *testing.T, texts *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p model.Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		*texts = append(*texts, p.Text)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend_FromFile(t *testing.T) {
	var texts []string
	srv := okWebhook(t, &texts)

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Records":[{"Sns":{"Message":"over budget"}}]}`), 0o644))

	_, err := runCLI(t, "", "send", "-f", path, "--webhook-url", srv.URL, "--prefix", "Account: MyAccount")
	require.NoError(t, err)
	assert.Equal(t, []string{"<!here> Account: MyAccount\nover budget\n\n" + alerts.Reminder}, texts)
}

func TestSend_FromStdin(t *testing.T) {
	var texts []string
	srv := okWebhook(t, &texts)

	_, err := runCLI(t, `{"Records":[{"Sns":{"Message":"from stdin"}}]}`, "send", "--webhook-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"<!here> from stdin\n\n" + alerts.Reminder}, texts)
}

func TestSend_ReportsToCommandStderr(t *testing.T) {
	var texts []string
	srv := okWebhook(t, &texts)

	stdout, stderr, err := runCLIOutput(t, `{"Records":[{"Sns":{"Message":"a"}},{"Sns":{"Message":"b"}}]}`, "send", "--webhook-url", srv.URL)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "Relayed 2 alert(s)\n", stderr)
	assert.Len(t, texts, 2)
}

func TestSend_MissingWebhookURL(t *testing.T) {
	_, err := runCLI(t, `{"Records":[{"Sns":{"Message":"x"}}]}`, "send")
	require.Error(t, err)
	assert.Equal(t, "WEBHOOK_URL environment variable must be defined", err.Error())
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "relay version dev\n", out)
}
