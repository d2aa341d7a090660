package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	result driven.CommandResult
	err    error

	name string
	args []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) (driven.CommandResult, error) {
	m.name = name
	m.args = args
	return m.result, m.err
}

// withTool fakes the presence of pdftotext for one test.
func withTool(t *testing.T, found bool) {
	t.Helper()
	orig := lookPath
	lookPath = func(string) (string, error) {
		if found {
			return "/usr/bin/pdftotext", nil
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestNew(t *testing.T) {
	e := New(&mockRunner{})
	require.NotNil(t, e)
	assert.Equal(t, domain.SourceTypePDF, e.SourceType())
	assert.Equal(t, []string{".pdf"}, e.Extensions())
}

func TestExtract_SplitsPages(t *testing.T) {
	withTool(t, true)
	runner := &mockRunner{result: driven.CommandResult{
		Stdout: []byte("Page one text\n\fPage two text\n\f  \n\fPage four\n\f"),
	}}

	pages, err := New(runner).Extract(context.Background(), "/tmp/report.pdf", "report.pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"-enc", "UTF-8", "/tmp/report.pdf", "-"}, runner.args)

	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, 4, pages[2].Number)
	assert.Contains(t, pages[2].Text, "Page four")
	for _, p := range pages {
		assert.Equal(t, 4, p.TotalPages)
	}
}

func TestExtract_NonZeroExit(t *testing.T) {
	withTool(t, true)
	runner := &mockRunner{result: driven.CommandResult{
		Stderr:   []byte("Syntax Error: Couldn't read xref table\n"),
		ExitCode: 1,
	}}

	_, err := New(runner).Extract(context.Background(), "/tmp/bad.pdf", "bad.pdf")

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "xref table")
}

func TestExtract_RunnerError(t *testing.T) {
	withTool(t, true)
	runner := &mockRunner{err: errors.New("boom")}

	_, err := New(runner).Extract(context.Background(), "/tmp/a.pdf", "a.pdf")

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_ToolMissing(t *testing.T) {
	withTool(t, false)

	_, err := New(&mockRunner{}).Extract(context.Background(), "/tmp/a.pdf", "a.pdf")

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "poppler")
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
