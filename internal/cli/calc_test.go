package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := Root()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	t.Cleanup(func() {
		root.SetIn(nil)
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	})
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCalcFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Design", "quantity": 2, "unitPrice": 150, "taxPercent": 18, "total": 1},
		{"name": "Hosting", "quantity": "1", "unitPrice": "49.99"}
	]`), 0o600))

	out, _, err := runCLI(t, "", "calc", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Subtotal: ₹349.99")
	assert.Contains(t, out, "Tax:      ₹54.00")
	assert.Contains(t, out, "Total:    ₹403.99")
	assert.Contains(t, out, "₹354.00")
}

func TestCalcFromStdinRejectsInvalidItems(t *testing.T) {
	_, stderr, err := runCLI(t, `[{"name": "", "quantity": 0, "unitPrice": -1}]`, "calc", "-")
	require.Error(t, err)
	assert.Contains(t, stderr, "items[0].name")
	assert.Contains(t, stderr, "items[0].quantity")
	assert.Contains(t, stderr, "items[0].unitPrice")
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "invoice-ai 1.2.3\n", out)
}
