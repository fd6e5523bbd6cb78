/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Job commands tests
 */

package cli

import (
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/OpenPrinting/ippclient"
	"github.com/OpenPrinting/ippclient/internal/ipptest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestStatusYAML(t *testing.T) {
	s := ipptest.NewServer(t, testJobHandler(ippclient.JobProcessingStopped,
		"media-empty", "cover-open"))

	cmd := NewStatusCommand(testOptions(t, "yaml"))
	out, err := testRun(cmd, s.URI(), "17")
	require.NoError(t, err)

	var res JobResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, int32(17), res.JobID)
	assert.Equal(t, "processing-stopped", res.State)
	assert.Equal(t, []string{"media-empty", "cover-open"}, res.StateReasons)

	msg := s.Requests()[0].Message
	assert.Equal(t, goipp.OpGetJobAttributes, goipp.Op(msg.Code))

	id, _ := ippclient.Get(msg.Operation, ippclient.AttrJobID)
	assert.Equal(t, int32(17), id)

	requested := ippclient.GetAll(msg.Operation, ippclient.AttrRequestedAttributes)
	assert.Equal(t, jobAttrs, requested)
}

func TestStatusNotFound(t *testing.T) {
	s := ipptest.NewServer(t, func(rq *goipp.Message, doc []byte) *goipp.Message {
		return ipptest.Response(rq, goipp.StatusErrorNotFound)
	})

	cmd := NewStatusCommand(testOptions(t, "text"))
	out, err := testRun(cmd, s.URI(), "3")

	require.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, ippclient.IsStatusError(err, goipp.StatusErrorNotFound))
}

func TestWait(t *testing.T) {
	states := []ippclient.JobState{ippclient.JobPending,
		ippclient.JobProcessing, ippclient.JobCanceled}

	s := ipptest.NewServer(t, func(rq *goipp.Message, doc []byte) *goipp.Message {
		state := states[0]
		if len(states) > 1 {
			states = states[1:]
		}
		return testJobHandler(state)(rq, doc)
	})

	cmd := NewWaitCommand(testOptions(t, "text"))
	out, err := testRun(cmd, s.URI(), "17")

	// Job is canceled, so wait fails
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "job 17: canceled\n", out)

	// 3 polls and the final status query
	assert.Len(t, s.Requests(), 4)
}

func TestCancel(t *testing.T) {
	s := ipptest.NewServer(t, nil)

	cmd := NewCancelCommand(testOptions(t, "text"))
	out, err := testRun(cmd, s.URI(), "9")
	require.NoError(t, err)
	assert.Equal(t, "job 9: successful-ok\n", out)

	msg := s.Requests()[0].Message
	assert.Equal(t, goipp.OpCancelJob, goipp.Op(msg.Code))

	id, _ := ippclient.Get(msg.Operation, ippclient.AttrJobID)
	assert.Equal(t, int32(9), id)
}

func TestCancelNotPossible(t *testing.T) {
	s := ipptest.NewServer(t, func(rq *goipp.Message, doc []byte) *goipp.Message {
		return ipptest.Response(rq, goipp.StatusErrorNotPossible)
	})

	cmd := NewCancelCommand(testOptions(t, "json"))
	_, err := testRun(cmd, s.URI(), "9")

	require.Error(t, err)
	assert.True(t, ippclient.IsStatusError(err, goipp.StatusErrorNotPossible))
}

func TestJobCommandsBadJobID(t *testing.T) {
	opts := testOptions(t, "text")
	commands := map[string]func(*RootOptions) *cobra.Command{
		"status": NewStatusCommand,
		"wait":   NewWaitCommand,
		"cancel": NewCancelCommand,
	}

	for name, newCmd := range commands {
		_, err := testRun(newCmd(opts), "ipp://localhost/ipp/print", "job")
		require.Error(t, err, name)
		assert.Equal(t, ExitCommandError, GetExitCode(err), name)
	}
}
