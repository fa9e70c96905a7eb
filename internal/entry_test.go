package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/linkograph/internal/apperr"
)

func TestAnalyze_PrintsReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kettle.md")
	body := "# Kettle\n1. boil\n2. pour [[1]]\n3. serve [[2]]\n4. clean [[3]]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Analyze(path, NewDefaultConfig(), &out); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var rep struct {
		Name      string          `json:"name"`
		MoveCount int             `json:"move_count"`
		Entropy   float64         `json:"entropy"`
		Score     json.RawMessage `json:"score"`
	}
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if rep.Name != "Kettle" || rep.MoveCount != 4 {
		t.Errorf("report = %+v", rep)
	}
	// Three adjacent links out of six points: p = 0.5 twice.
	if rep.Entropy != 1 {
		t.Errorf("entropy = %v, want 1", rep.Entropy)
	}
	if len(rep.Score) == 0 {
		t.Error("score missing")
	}
}

func TestAnalyze_Errors(t *testing.T) {
	if err := Analyze(filepath.Join(t.TempDir(), "absent.md"), NewDefaultConfig(), &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "one.md")
	if err := os.WriteFile(path, []byte("1. alone\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Analyze(path, NewDefaultConfig(), &bytes.Buffer{})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(t.Context()); err == nil {
		t.Error("Run without config should fail")
	}
	if err := RunMCP(t.Context()); err == nil {
		t.Error("RunMCP without config should fail")
	}
}
