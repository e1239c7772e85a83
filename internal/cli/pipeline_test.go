package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /hello:\n" +
	"    get:\n" +
	"      operationId: sayHello\n" +
	"      tags: [Greeting]\n" +
	"      summary: Hello\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          content:\n" +
	"            application/json:\n" +
	"              schema:\n" +
	"                $ref: '#/components/schemas/Greeting'\n" +
	"components:\n" +
	"  schemas:\n" +
	"    Greeting:\n" +
	"      type: object\n" +
	"      properties:\n" +
	"        text:\n" +
	"          type: string\n"

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeSpec(t *testing.T, dir, content string) string {
	t.Helper()
	specPath := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(specPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return specPath
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--output", outDir, "--dry-run"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned writes to") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	for _, want := range []string{"- index.ts", "- core/request.ts", "- models/Greeting.ts", "- services/GreetingService.ts"} {
		if !strings.Contains(out, want+"\n") {
			t.Fatalf("plan misses %q:\n%s", want, out)
		}
	}
	// Dry-run should not create the directory
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_WritesClient(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "-i", specPath, "-o", outDir, "--client", "axios", "--use-options"})

	captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})

	req, err := os.ReadFile(filepath.Join(outDir, "core", "request.ts"))
	if err != nil {
		t.Fatalf("read request.ts: %v", err)
	}
	if !strings.Contains(string(req), "axios") {
		t.Fatalf("expected axios transport in request.ts")
	}
	svc, err := os.ReadFile(filepath.Join(outDir, "services", "GreetingService.ts"))
	if err != nil {
		t.Fatalf("read service: %v", err)
	}
	if !strings.Contains(string(svc), "public static sayHello(") {
		t.Fatalf("unexpected service:\n%s", svc)
	}

	// A second run into the populated directory needs --force.
	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "-i", specPath, "-o", outDir})
	err = root.Execute()
	if !errors.Is(err, ErrUsage) || !errors.Is(err, generrors.ErrInput) {
		t.Fatalf("expected usage error for non-empty output, got %v", err)
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected --force hint, got %v", err)
	}
}

func TestGeneratePipeline_ReportsPointer(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir, strings.Replace(minimalSpecYAML, "#/components/schemas/Greeting", "#/components/schemas/Missing", 1))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "-i", specPath, "-o", filepath.Join(dir, "out")})

	err := root.Execute()
	if !errors.Is(err, generrors.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
	if !strings.Contains(err.Error(), "Pointer: #/components/schemas/Missing") {
		t.Fatalf("expected pointer line, got %v", err)
	}
}
