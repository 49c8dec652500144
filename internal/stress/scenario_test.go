package stress

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultScenarioIsValid(t *testing.T) {
	require.NoError(t, DefaultScenario().Validate())
}

func TestParseScenario(t *testing.T) {
	t.Parallel()

	t.Run("Success: Parses every attribute", func(t *testing.T) {
		t.Parallel()
		src := `
		scenario "churn" {
			workers            = 4
			objects_per_worker = 16
			iterations         = 500
			collect_every      = "250us"
			shards             = 8
		}`

		sc, err := Parse([]byte(src), "churn.hcl")
		require.NoError(t, err)
		require.Equal(t, Scenario{
			Name:             "churn",
			Workers:          4,
			ObjectsPerWorker: 16,
			Iterations:       500,
			CollectEvery:     250 * time.Microsecond,
			Shards:           8,
		}, sc)
	})

	t.Run("Success: Missing attributes keep defaults", func(t *testing.T) {
		t.Parallel()
		sc, err := Parse([]byte(`scenario "small" { iterations = 10 }`), "small.hcl")
		require.NoError(t, err)

		want := DefaultScenario()
		want.Name = "small"
		want.Iterations = 10
		require.Equal(t, want, sc)
	})

	t.Run("Success: Expressions can use num_cpu", func(t *testing.T) {
		t.Parallel()
		sc, err := Parse([]byte(`scenario "wide" { workers = num_cpu * 2 }`), "wide.hcl")
		require.NoError(t, err)
		require.Equal(t, runtime.NumCPU()*2, sc.Workers)
	})

	t.Run("Success: Empty file yields defaults", func(t *testing.T) {
		t.Parallel()
		sc, err := Parse([]byte(""), "empty.hcl")
		require.NoError(t, err)
		require.Equal(t, DefaultScenario(), sc)
	})

	t.Run("Failure: Invalid duration", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`scenario "bad" { collect_every = "soon" }`), "bad.hcl")
		require.ErrorIs(t, err, ErrInvalidScenario)
	})

	t.Run("Failure: Validation runs after decoding", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`scenario "bad" { workers = 0 }`), "bad.hcl")
		require.ErrorIs(t, err, ErrInvalidScenario)
	})

	t.Run("Failure: Unknown attribute", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`scenario "bad" { threads = 2 }`), "bad.hcl")
		require.Error(t, err)
	})

	t.Run("Failure: Syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`scenario "bad" {`), "bad.hcl")
		require.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`scenario "disk" { shards = 2 }`), 0o644))

	sc, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "disk", sc.Name)
	require.Equal(t, 2, sc.Shards)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"workers", func(s *Scenario) { s.Workers = 0 }},
		{"objects", func(s *Scenario) { s.ObjectsPerWorker = 0 }},
		{"iterations", func(s *Scenario) { s.Iterations = -1 }},
		{"collect_every", func(s *Scenario) { s.CollectEvery = 0 }},
		{"shards", func(s *Scenario) { s.Shards = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := DefaultScenario()
			tt.mutate(&sc)
			require.ErrorIs(t, sc.Validate(), ErrInvalidScenario)
		})
	}
}
