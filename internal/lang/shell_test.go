package lang

import (
	"strings"
	"testing"
)

func extractSh(t *testing.T, src string) *FileSymbols {
	t.Helper()
	out, err := (&shellExtractor{}).Extract([]byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return out
}

func TestShellFunctions(t *testing.T) {
	t.Parallel()

	out := extractSh(t, `#!/bin/bash
source ./lib/common.sh

# Deploys the given target.
deploy() {
  local target="$1"
  build "$target" "$2"
}

function cleanup {
  rm -rf "$TMPDIR"
}
`)

	deploy := out.Functions["deploy"]
	if deploy == nil {
		t.Fatalf("deploy missing: %v", out.Functions)
	}
	if deploy.Signature != "($1, $2)" {
		t.Errorf("deploy signature = %q", deploy.Signature)
	}
	if deploy.Doc != "Deploys the given target." {
		t.Errorf("deploy doc = %q", deploy.Doc)
	}
	if !strings.Contains(deploy.Body, `build "$target"`) {
		t.Errorf("deploy body = %q", deploy.Body)
	}

	cleanup := out.Functions["cleanup"]
	if cleanup == nil {
		t.Fatal("cleanup missing")
	}
	if cleanup.Signature != "()" {
		t.Errorf("cleanup signature = %q", cleanup.Signature)
	}

	if len(out.Imports) != 1 || out.Imports[0] != "./lib/common.sh" {
		t.Errorf("imports = %v", out.Imports)
	}
}

func TestShellConstants(t *testing.T) {
	t.Parallel()

	out := extractSh(t, `export API_URL="https://example.com"
readonly MAX_JOBS=4
LOG_DIR=/var/log/app
lowercase=ignored
`)

	if out.Constants["API_URL"] != "str" {
		t.Errorf("API_URL = %q", out.Constants["API_URL"])
	}
	if out.Constants["MAX_JOBS"] != "number" {
		t.Errorf("MAX_JOBS = %q", out.Constants["MAX_JOBS"])
	}
	if _, ok := out.Constants["LOG_DIR"]; !ok {
		t.Errorf("LOG_DIR missing: %v", out.Constants)
	}
	if _, ok := out.Constants["lowercase"]; ok {
		t.Error("lowercase variable should not be a constant")
	}
}
