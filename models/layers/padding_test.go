// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"fmt"
	"testing"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors/images"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/jimm/internal/pooltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPadding(t *testing.T) {
	assert.Equal(t, 1, GetPadding(3, 1, 1))
	assert.Equal(t, 1, GetPadding(3, 2, 1))
	assert.Equal(t, 1, GetPadding(2, 2, 1))
	assert.Equal(t, 0, GetPadding(1, 1, 1))
	assert.Equal(t, 4, GetPadding(5, 1, 2))
}

func TestGetSamePadding(t *testing.T) {
	for _, tc := range []struct {
		inputSize, kernelSize, stride, dilation, want int
	}{
		{5, 3, 2, 1, 2},
		{6, 3, 2, 1, 1},
		{4, 2, 2, 1, 0},
		{7, 3, 1, 2, 4},
		{1, 3, 2, 1, 2},
		{224, 3, 2, 1, 1},
		{10, 1, 3, 1, 0},
	} {
		got := GetSamePadding(tc.inputSize, tc.kernelSize, tc.stride, tc.dilation)
		assert.Equalf(t, tc.want, got, "GetSamePadding(input=%d, kernel=%d, stride=%d, dilation=%d)",
			tc.inputSize, tc.kernelSize, tc.stride, tc.dilation)
	}
	assert.Equal(t, [2]int{1, 1}, SamePaddings(5, 3, 2, 1))
	assert.Equal(t, [2]int{0, 1}, SamePaddings(6, 3, 2, 1))
	assert.Equal(t, [2]int{2, 2}, SamePaddings(7, 3, 1, 2))
}

func TestSamePaddingOutputSize(t *testing.T) {
	for inputSize := 1; inputSize <= 12; inputSize++ {
		for kernelSize := 1; kernelSize <= 5; kernelSize++ {
			for stride := 1; stride <= 3; stride++ {
				for dilation := 1; dilation <= 3; dilation++ {
					pad := GetSamePadding(inputSize, kernelSize, stride, dilation)
					got := OutputSize(inputSize+pad, kernelSize, stride, dilation, 0, false)
					want := (inputSize + stride - 1) / stride
					require.Equalf(t, want, got, "input=%d, kernel=%d, stride=%d, dilation=%d, pad=%d",
						inputSize, kernelSize, stride, dilation, pad)
				}
			}
		}
	}
}

func TestIsStaticPad(t *testing.T) {
	assert.True(t, IsStaticPad(3, 1, 1))
	assert.False(t, IsStaticPad(3, 2, 1))
	assert.False(t, IsStaticPad(2, 1, 1))
	assert.True(t, IsStaticPad(4, 1, 2))
	assert.True(t, IsStaticPad(1, 1, 1))
}

func TestGetPaddingValue(t *testing.T) {
	for _, tc := range []struct {
		mode                         PaddingMode
		kernelSize, stride, dilation int
		wantPadding                  int
		wantDynamic                  bool
	}{
		{PaddingSame, 3, 1, 1, 1, false},
		{PaddingSame, 3, 2, 1, 0, true},
		{PaddingSame, 2, 1, 1, 0, true},
		{PaddingValid, 3, 2, 1, 0, false},
		{PaddingDefault, 3, 2, 1, 1, false},
		{PaddingDefault, 5, 1, 2, 4, false},
	} {
		name := fmt.Sprintf("%s(kernel=%d, stride=%d, dilation=%d)", tc.mode, tc.kernelSize, tc.stride, tc.dilation)
		padding, dynamic := GetPaddingValue(tc.mode, tc.kernelSize, tc.stride, tc.dilation)
		assert.Equal(t, tc.wantPadding, padding, name)
		assert.Equal(t, tc.wantDynamic, dynamic, name)
	}
	require.Panics(t, func() { _, _ = GetPaddingValue(PaddingMode(10), 3, 1, 1) })
}

func TestParsePaddingMode(t *testing.T) {
	for name, want := range map[string]PaddingMode{
		"":        PaddingDefault,
		"default": PaddingDefault,
		"same":    PaddingSame,
		"SAME":    PaddingSame,
		" Valid ": PaddingValid,
	} {
		got, err := ParsePaddingMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParsePaddingMode("full")
	require.ErrorContains(t, err, "invalid padding")
	assert.Equal(t, "same", PaddingSame.String())
	assert.Equal(t, "default", PaddingDefault.String())
	for _, mode := range PaddingModeValues() {
		got, err := ParsePaddingMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
}

func TestOutputSize(t *testing.T) {
	assert.Equal(t, 2, OutputSize(5, 2, 2, 1, 0, false))
	assert.Equal(t, 3, OutputSize(5, 2, 2, 1, 0, true))
	assert.Equal(t, 3, OutputSize(6, 3, 2, 1, 1, false))
	assert.Equal(t, 4, OutputSize(6, 3, 2, 1, 1, true))
	// Last window would start in the end padding: it's dropped.
	assert.Equal(t, 3, OutputSize(5, 2, 2, 1, 1, true))
	assert.Equal(t, 3, OutputSize(7, 3, 1, 2, 0, false))
	require.Panics(t, func() { OutputSize(2, 5, 1, 1, 0, false) })

	assert.Equal(t, 1, ceilModePadding(5, 2, 2, 1, [2]int{0, 0}, true))
	assert.Equal(t, 0, ceilModePadding(5, 2, 2, 1, [2]int{0, 0}, false))
	assert.Equal(t, 0, ceilModePadding(5, 2, 2, 1, [2]int{1, 1}, true))
}

func TestToPair(t *testing.T) {
	assert.Equal(t, [2]int{3, 3}, ToPair("kernel", 3))
	assert.Equal(t, [2]int{3, 5}, ToPair("kernel", 3, 5))
	require.Panics(t, func() { ToPair("kernel") })
	require.Panics(t, func() { ToPair("kernel", 1, 2, 3) })
	require.Panics(t, func() { ToPair("stride", 0) })
}

func TestPadSame(t *testing.T) {
	pooltest.TestFuncOneInput(t, "PadSame(ChannelsLast, kernel=3, stride=2)",
		func(g *Graph) (input, output *Node) {
			input = IotaFull(g, shapes.Make(dtypes.Float32, 1, 2, 2, 1))
			output = PadSame(input, nil, images.ChannelsLast, [2]int{3, 3}, [2]int{2, 2}, [2]int{1, 1})
			return
		}, [][][][]float32{{
			{{0}, {1}, {0}},
			{{2}, {3}, {0}},
			{{0}, {0}, {0}},
		}})

	pooltest.TestFuncOneInput(t, "PadSame(ChannelsFirst, kernel=(1,3), stride=1, dilation=(1,2), fill=-1)",
		func(g *Graph) (input, output *Node) {
			input = Const(g, [][][][]float32{{{{3, 1, 4}}}})
			fill := Scalar(g, dtypes.Float32, -1)
			output = PadSame(input, fill, images.ChannelsFirst, [2]int{1, 3}, [2]int{1, 1}, [2]int{1, 2})
			return
		}, [][][][]float32{{{{-1, -1, 3, 1, 4, -1, -1}}}})

	pooltest.TestFuncOneInput(t, "PadSame() no-op",
		func(g *Graph) (input, output *Node) {
			input = IotaFull(g, shapes.Make(dtypes.Float32, 1, 2, 2, 1))
			output = PadSame(input, nil, images.ChannelsLast, [2]int{2, 2}, [2]int{2, 2}, [2]int{1, 1})
			return
		}, [][][][]float32{{{{0}, {1}}, {{2}, {3}}}})
}
