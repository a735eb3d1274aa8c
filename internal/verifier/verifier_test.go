package verifier

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// collect drains both channels and fails the test if the run hangs.
func collect(t *testing.T, results <-chan Result, errc <-chan error) ([]Result, error) {
	t.Helper()
	var got []Result
	timeout := time.After(10 * time.Second)
	for {
		select {
		case r, ok := <-results:
			if !ok {
				select {
				case err := <-errc:
					return got, err
				case <-timeout:
					t.Fatal("timed out waiting for verifier exit")
				}
			}
			got = append(got, r)
		case <-timeout:
			t.Fatal("timed out waiting for verifier results")
		}
	}
}

func runAll(t *testing.T, r *Runner) ([]Result, error) {
	t.Helper()
	results, errc := r.Run(context.Background())
	return collect(t, results, errc)
}

func TestParseResult(t *testing.T) {
	for _, tc := range []struct {
		name    string
		line    string
		want    Result
		wantErr bool
	}{
		{"Verified", `{"query":1,"outcome":"verified"}`, Result{Query: 1, Outcome: model.StatusVerified}, false},
		{"Witness", `{"query":4,"outcome":"disproven","witness":"cex/4.npy"}`, Result{Query: 4, Outcome: model.StatusDisproven, Witness: "cex/4.npy"}, false},
		{"Reset", `{"query":2,"outcome":"unknown"}`, Result{Query: 2, Outcome: model.StatusUnknown}, false},
		{"ZeroQuery", `{"query":0,"outcome":"verified"}`, Result{}, true},
		{"BadOutcome", `{"query":1,"outcome":"timeout"}`, Result{}, true},
		{"UnknownField", `{"query":1,"outcome":"verified","extra":1}`, Result{}, true},
		{"NotJSON", `Query 1 verified`, Result{}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResult([]byte(tc.line))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReadResults(t *testing.T) {
	input := `{"query":1,"outcome":"verified"}

{"query":2,"outcome":"disproven"}
`
	got, err := ReadResults(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadResults: %v", err)
	}
	if len(got) != 2 || got[1].Query != 2 {
		t.Errorf("got %+v", got)
	}

	got, err = ReadResults(strings.NewReader(input + "garbage\n"))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("err = %v, want line 4 error", err)
	}
	if len(got) != 2 {
		t.Errorf("partial results = %d, want 2", len(got))
	}
}

func TestRunner_StreamsResults(t *testing.T) {
	r := Shell(`printf '{"query":1,"outcome":"verified"}\nnot json\n{"query":2,"outcome":"disproven","witness":"w.npy"}\n'`)
	r.Logger = quietLogger()

	got, err := runAll(t, r)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	want := []Result{
		{Query: 1, Outcome: model.StatusVerified},
		{Query: 2, Outcome: model.StatusDisproven, Witness: "w.npy"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRunner_LogsStderr(t *testing.T) {
	var buf bytes.Buffer
	r := Shell(`echo "loading network" >&2`)
	r.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	if _, err := runAll(t, r); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(buf.String(), "loading network") {
		t.Errorf("stderr not logged: %s", buf.String())
	}
}

func TestRunner_Env(t *testing.T) {
	r := Shell(`printf '{"query":%s,"outcome":"verified"}\n' "$PG_QUERY"`)
	r.Env = map[string]string{"PG_QUERY": "7"}
	r.Logger = quietLogger()

	got, err := runAll(t, r)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if len(got) != 1 || got[0].Query != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestRunner_ExitCode(t *testing.T) {
	r := Shell(`exit 3`)
	r.Logger = quietLogger()

	_, err := runAll(t, r)
	if err == nil || !strings.Contains(err.Error(), "code 3") {
		t.Errorf("err = %v, want exit code 3", err)
	}
}

func TestRunner_StartFailure(t *testing.T) {
	r := &Runner{Command: "/nonexistent/verifier", Logger: quietLogger()}

	got, err := runAll(t, r)
	if err == nil {
		t.Fatal("expected start error")
	}
	if len(got) != 0 {
		t.Errorf("got results from a process that never started: %+v", got)
	}
}

func TestRunner_Timeout(t *testing.T) {
	r := Shell(`exec sleep 10`)
	r.Timeout = 100 * time.Millisecond
	r.Logger = quietLogger()

	start := time.Now()
	_, err := runAll(t, r)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestRunner_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := Shell(`echo '{"query":1,"outcome":"verified"}'; exec sleep 10`)
	r.Logger = quietLogger()
	results, errc := r.Run(ctx)

	select {
	case res := <-results:
		if res.Query != 1 {
			t.Errorf("first result = %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first result")
	}
	cancel()

	_, err := collect(t, results, errc)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}
