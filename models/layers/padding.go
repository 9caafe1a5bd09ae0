// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"slices"
	"strings"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors/images"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// This file contains the padding calculations shared by the pooling (and eventually convolution) layers.

// PaddingMode selects how a layer pads its input.
type PaddingMode int

const (
	// PaddingDefault is PyTorch's symmetric padding: ((stride-1) + dilation*(kernel-1)) / 2 on each side.
	// Its name is "default", and ParsePaddingMode also accepts the empty string for it.
	PaddingDefault PaddingMode = iota

	// PaddingSame is TensorFlow's "SAME" padding: the output has ceil(input/stride) elements per spatial axis.
	// When the padding can't be made symmetric and static, it is calculated from the input shape (see GetSamePadding).
	PaddingSame

	// PaddingValid means no padding.
	PaddingValid
)

//go:generate go tool enumer -type=PaddingMode -trimprefix=Padding -transform=snake -values -text padding.go

// ParsePaddingMode converts a padding name ("default", "same" or "valid") to a PaddingMode. It is
// case-insensitive, and the empty string is an alias for "default".
func ParsePaddingMode(name string) (PaddingMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PaddingDefault, nil
	}
	mode, err := PaddingModeString(name)
	if err != nil {
		return PaddingDefault, errors.Wrapf(err, "invalid padding %q, valid values are %q", name, PaddingModeStrings())
	}
	return mode, nil
}

// GetPadding returns the symmetric padding (on each side) PyTorch uses for the given kernel size, stride and dilation.
func GetPadding(kernelSize, stride, dilation int) int {
	return ((stride - 1) + dilation*(kernelSize-1)) / 2
}

// GetSamePadding returns the total padding needed on one axis of size inputSize so that a window of
// kernelSize (dilated by dilation) moved by stride produces ceil(inputSize/stride) outputs, TensorFlow "SAME" style.
//
// The padding is never negative.
func GetSamePadding(inputSize, kernelSize, stride, dilation int) int {
	numOutputs := (inputSize + stride - 1) / stride
	return max((numOutputs-1)*stride+(kernelSize-1)*dilation+1-inputSize, 0)
}

// IsStaticPad returns whether "SAME" padding can be calculated without knowing the input size: that is the case
// when stride is 1 and the dilated kernel extent is odd, so the padding is symmetric.
func IsStaticPad(kernelSize, stride, dilation int) bool {
	return stride == 1 && (dilation*(kernelSize-1))%2 == 0
}

// GetPaddingValue resolves a PaddingMode for one spatial axis to either a static symmetric padding or to
// dynamic padding (returned as padding 0 and dynamic true), which must be calculated per input with GetSamePadding.
func GetPaddingValue(mode PaddingMode, kernelSize, stride, dilation int) (padding int, dynamic bool) {
	switch mode {
	case PaddingSame:
		if IsStaticPad(kernelSize, stride, dilation) {
			return GetPadding(kernelSize, stride, dilation), false
		}
		return 0, true
	case PaddingValid:
		return 0, false
	case PaddingDefault:
		return GetPadding(kernelSize, stride, dilation), false
	default:
		Panicf("unknown padding mode %s: valid values are %v", mode, PaddingModeValues())
	}
	return
}

// SamePaddings splits the total "SAME" padding of an axis in the start and end paddings.
// If the total is odd, the extra element goes to the end, as TensorFlow does.
func SamePaddings(inputSize, kernelSize, stride, dilation int) [2]int {
	pad := GetSamePadding(inputSize, kernelSize, stride, dilation)
	return [2]int{pad / 2, pad - pad/2}
}

// OutputSize returns the number of outputs of a pooling window over an axis with inputSize, padded with
// padding on both sides.
//
// With ceilMode the last partial window is included, as long as it starts inside the input or the start padding.
func OutputSize(inputSize, kernelSize, stride, dilation, padding int, ceilMode bool) int {
	span := inputSize + 2*padding - (dilation*(kernelSize-1) + 1)
	if span < 0 {
		Panicf("pooling window (kernel=%d, dilation=%d) larger than padded input (size=%d, padding=%d)",
			kernelSize, dilation, inputSize, padding)
	}
	if !ceilMode {
		return span/stride + 1
	}
	numOutputs := (span+stride-1)/stride + 1
	if (numOutputs-1)*stride >= inputSize+padding {
		numOutputs--
	}
	return numOutputs
}

// ceilModePadding returns the extra end padding needed so a pooling with no ceil mode produces the number
// of outputs ceilMode would have, given the axis size and its (possibly asymmetric) paddings.
func ceilModePadding(inputSize, kernelSize, stride, dilation int, paddings [2]int, ceilMode bool) int {
	if !ceilMode {
		return 0
	}
	effectiveKernel := dilation*(kernelSize-1) + 1
	paddedSize := inputSize + paddings[0] + paddings[1]
	span := paddedSize - effectiveKernel
	if span < 0 {
		return 0
	}
	numOutputs := (span+stride-1)/stride + 1
	if (numOutputs-1)*stride >= inputSize+paddings[0] {
		numOutputs--
	}
	return max((numOutputs-1)*stride+effectiveKernel-paddedSize, 0)
}

// PadSame pads the 2 spatial axes of x such that pooling (or convolving) it with the given kernel size, stride and
// dilation, and no further padding, yields ceil(size/stride) outputs per spatial axis -- TensorFlow's "SAME".
//
// x must be rank-4, shaped [batch, height, width, channels] for images.ChannelsLast or
// [batch, channels, height, width] for images.ChannelsFirst.
//
// fillValue must be a scalar of x's dtype. If it is nil, x is padded with zeros. If no padding is needed x is returned unchanged.
func PadSame(x, fillValue *Node, channelsAxisConfig images.ChannelsAxisConfig, kernelSize, stride, dilation [2]int) *Node {
	spatialAxes := spatialAxes2d(x, channelsAxisConfig)
	paddings := samePaddings2d(x, spatialAxes, kernelSize, stride, dilation)
	return padSpatial(x, fillValue, spatialAxes, paddings)
}

// spatialAxes2d returns the height and width axes of x.
func spatialAxes2d(x *Node, channelsAxisConfig images.ChannelsAxisConfig) (axes [2]int) {
	if x.Rank() != 4 {
		Panicf("2D pooling requires a rank-4 input shaped [batch, <height, width>, channels] (or channels first), "+
			"got x.shape=%s", x.Shape())
	}
	copy(axes[:], images.GetSpatialAxes(x, channelsAxisConfig))
	return
}

// samePaddings2d calculates the "SAME" paddings of the spatial axes of x.
func samePaddings2d(x *Node, spatialAxes [2]int, kernelSize, stride, dilation [2]int) (paddings [2][2]int) {
	dims := x.Shape().Dimensions
	for ii, axis := range spatialAxes {
		paddings[ii] = SamePaddings(dims[axis], kernelSize[ii], stride[ii], dilation[ii])
	}
	if klog.V(2).Enabled() {
		klog.Infof("same padding for x.shape=%s, kernel=%v, stride=%v, dilation=%v: %v",
			x.Shape(), kernelSize, stride, dilation, paddings)
	}
	return
}

// padSpatial pads the spatial axes of x with fillValue (zero if nil).
//
// It concatenates blocks broadcast from fillValue, instead of using Pad, which the pure Go backend lacks.
func padSpatial(x, fillValue *Node, spatialAxes [2]int, paddings [2][2]int) *Node {
	if paddings == [2][2]int{} {
		return x
	}
	if fillValue == nil {
		fillValue = ScalarZero(x.Graph(), x.DType())
	}
	for ii, axis := range spatialAxes {
		start, end := paddings[ii][0], paddings[ii][1]
		if start == 0 && end == 0 {
			continue
		}
		block := func(size int) *Node {
			dims := slices.Clone(x.Shape().Dimensions)
			dims[axis] = size
			return BroadcastToDims(fillValue, dims...)
		}
		parts := make([]*Node, 0, 3)
		if start > 0 {
			parts = append(parts, block(start))
		}
		parts = append(parts, x)
		if end > 0 {
			parts = append(parts, block(end))
		}
		x = Concatenate(parts, axis)
	}
	return x
}
