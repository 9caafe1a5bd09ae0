package main

import (
	"flag"
	"fmt"
	"testing"

	"github.com/gomlx/jimm/internal/pooltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setFlags sets the command-line flags for the duration of the test.
func setFlags(t *testing.T, values map[string]string) {
	for name, value := range values {
		f := flag.Lookup(name)
		require.NotNilf(t, f, "unknown flag -%s", name)
		previous := f.Value.String()
		require.NoError(t, flag.Set(name, value))
		t.Cleanup(func() { _ = flag.Set(name, previous) })
	}
}

func TestParseInts(t *testing.T) {
	values, err := parseInts("input", "224, 112")
	require.NoError(t, err)
	assert.Equal(t, []int{224, 112}, values)

	values, err = parseInts("kernel", "3")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, values)

	_, err = parseInts("kernel", "")
	require.Error(t, err)
	_, err = parseInts("stride", "2,x")
	require.ErrorContains(t, err, "-stride")
}

func TestBuildPool(t *testing.T) {
	setFlags(t, map[string]string{"kernel": "3", "stride": "2", "padding": "same", "type": "avg"})
	pool := buildPool()
	assert.True(t, pool.IsDynamic())
	assert.Equal(t, [2]int{2, 2}, pool.Stride())
	assert.Equal(t, [2]int{3, 3}, pool.KernelSize())

	setFlags(t, map[string]string{"stride": "1", "dilation": "1"})
	pool = buildPool()
	assert.False(t, pool.IsDynamic())
	assert.Equal(t, [2]int{1, 1}, pool.Padding())
	assert.Equal(t, [2]int{1, 1}, pool.Dilation())
}

func TestReportMatchesExecution(t *testing.T) {
	backend := pooltest.BuildTestBackend()
	for _, tc := range []struct {
		flags      map[string]string
		wantOutput [2]int
	}{
		{map[string]string{"input": "5,5", "kernel": "2", "padding": "", "type": "avg", "ceil": "true",
			"count_include_pad": "false"}, [2]int{3, 3}},
		{map[string]string{"input": "7,5", "kernel": "3", "stride": "2", "padding": "same", "type": "max"},
			[2]int{4, 3}},
		{map[string]string{"input": "6,6", "kernel": "3", "stride": "2", "padding": "default", "type": "max",
			"ceil": "true"}, [2]int{4, 4}},
		{map[string]string{"input": "9,9", "kernel": "3", "stride": "1", "dilation": "2", "padding": "same",
			"type": "max"}, [2]int{9, 9}},
		{map[string]string{"input": "6,4", "kernel": "2", "stride": "1", "padding": "same", "type": "avg",
			"channels_first": "true", "channels": "2"}, [2]int{6, 4}},
	} {
		t.Run(fmt.Sprintf("%v", tc.flags), func(t *testing.T) {
			setFlags(t, tc.flags)
			inputSize := [2]int{}
			values, err := parseInts("input", *flagInput)
			require.NoError(t, err)
			copy(inputSize[:], values)
			pool := buildPool()

			outputSize := report(pool, inputSize)
			assert.Equal(t, tc.wantOutput, outputSize)

			_, output := execute(backend, pool, inputSize)
			dims := output.Shape().Dimensions
			gotSpatial := [2]int{dims[1], dims[2]}
			if *flagChannelsFirst {
				gotSpatial = [2]int{dims[2], dims[3]}
			}
			assert.Equal(t, outputSize, gotSpatial, "reported output size must match the executed pooling")
		})
	}
}
