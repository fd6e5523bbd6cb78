/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Root command tests
 */

package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/OpenPrinting/ippclient"
	"github.com/OpenPrinting/ippclient/internal/ipptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOptions creates RootOptions with the configuration file
// in the temporary directory. Job state is polled each millisecond
func testOptions(t *testing.T, format string) *RootOptions {
	path := filepath.Join(t.TempDir(), ippclient.ConfFileName)
	conf := "[poll]\ninterval = 1ms\n[logging]\nconsole-log = error\n"
	require.NoError(t, os.WriteFile(path, []byte(conf), 0644))

	return &RootOptions{ConfigPath: path, Format: format}
}

// testRun executes the command with arguments and returns its output
func testRun(cmd interface {
	SetOut(w io.Writer)
	SetArgs(args []string)
	Execute() error
}, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// testJobHandler creates ipptest.Handler that creates job 17
// and reports it in the given state
func testJobHandler(state ippclient.JobState, reasons ...string) ipptest.Handler {
	return func(rq *goipp.Message, doc []byte) *goipp.Message {
		attrs := goipp.Attributes{
			goipp.MakeAttr("job-id", goipp.TagInteger, goipp.Integer(17)),
			goipp.MakeAttr("job-state", goipp.TagEnum, goipp.Integer(state)),
		}

		if len(reasons) != 0 {
			attr := goipp.Attribute{Name: "job-state-reasons"}
			for _, r := range reasons {
				attr.Values.Add(goipp.TagKeyword, goipp.String(r))
			}
			attrs.Add(attr)
		}

		return ipptest.Response(rq, goipp.StatusOk, ipptest.JobGroup(attrs...))
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t,
		[]string{"print", "status", "wait", "cancel", "attrs"}, names)

	for _, flag := range []string{"config", "format", "verbose", "insecure"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommandInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := testRun(cmd, "--format", "xml", "attrs", "ipp://localhost/ipp/print")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommandStatus(t *testing.T) {
	s := ipptest.NewServer(t, testJobHandler(ippclient.JobProcessing))
	conf := testOptions(t, "text").ConfigPath

	cmd := NewRootCommand()
	out, err := testRun(cmd, "--config", conf, "status", s.URI(), "17")

	require.NoError(t, err)
	assert.Equal(t, "job 17: processing\n", out)
}

func TestRootCommandBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ippclient.ConfFileName)
	require.NoError(t, os.WriteFile(path, []byte("[tls]\nverify = maybe\n"), 0644))

	cmd := NewRootCommand()
	_, err := testRun(cmd, "--config", path, "status", "ipp://localhost/", "1")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootOptionsSetup(t *testing.T) {
	opts := testOptions(t, "text")
	opts.Verbose = true
	opts.Insecure = true

	require.NoError(t, opts.setup())
	assert.False(t, opts.conf.TLSVerify)
	assert.NotZero(t, opts.conf.LogConsole&ippclient.LogTraceIPP)
	assert.NotNil(t, opts.exec)

	exec := opts.exec
	require.NoError(t, opts.setup())
	assert.Same(t, exec, opts.exec)
}

func TestRootOptionsJob(t *testing.T) {
	opts := testOptions(t, "text")

	for _, id := range []string{"0", "-5", "abc", "4294967296"} {
		_, err := opts.job("ipp://localhost/ipp/print", id)
		require.Error(t, err, id)
		assert.Equal(t, ExitCommandError, GetExitCode(err), id)
	}

	_, err := opts.job("lpd://localhost/queue", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, errors.Is(err, ippclient.ErrUnsupportedScheme))

	job, err := opts.job("ipp://localhost/ipp/print", "42")
	require.NoError(t, err)
	assert.Equal(t, int32(42), job.ID)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("failed")))
	assert.Equal(t, ExitCommandError,
		GetExitCode(NewExitError(ExitCommandError, "usage")))

	err := WrapExitError(ExitFailure, "job", ippclient.ErrAttrAbsent)
	assert.True(t, errors.Is(err, ippclient.ErrAttrAbsent))
	assert.Equal(t, "job: "+ippclient.ErrAttrAbsent.Error(), err.Error())
}
