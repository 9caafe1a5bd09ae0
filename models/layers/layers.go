// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layers holds the building blocks shared by the image models: TensorFlow compatible "SAME" padding
// computations and the 2D pooling layers built on top of them.
//
// The pooling math itself is GoMLX's (graph.MaxPool, graph.MeanPool, graph.Pad): the layers here only
// calculate the paddings required to reproduce the padding conventions of the frameworks the model weights
// come from (TensorFlow's "SAME" and PyTorch's symmetric padding) and then delegate to those operations.
//
// Layers follow PyTorch naming (AvgPool2dSame, MaxPool2dSame, CreatePool2d) to ease porting model definitions.
package layers

import (
	. "github.com/gomlx/exceptions"
)

const (
	// ParamPoolType context hyperparameter defines the pooling type used by CreatePool2dFromContext.
	// Valid values are "avg" and "max" (see PoolTypeValues).
	// The default is "max".
	ParamPoolType = "pool_type"

	// ParamPoolPadding context hyperparameter defines the padding mode used by CreatePool2dFromContext:
	// "same", "valid" or "" (PyTorch style symmetric padding).
	// The default is "".
	ParamPoolPadding = "pool_padding"

	// ParamPoolStride context hyperparameter defines the pooling stride used by CreatePool2dFromContext.
	// The default is 0, which means the stride equals the kernel size.
	ParamPoolStride = "pool_stride"

	// ParamPoolDilation context hyperparameter defines the window dilation used by CreatePool2dFromContext.
	// Only max pooling supports dilation larger than 1.
	// The default is 1.
	ParamPoolDilation = "pool_dilation"

	// ParamPoolCeilMode context hyperparameter enables "ceil mode" for the output size calculation.
	// The default is false.
	ParamPoolCeilMode = "pool_ceil_mode"

	// ParamPoolCountIncludePad context hyperparameter defines whether average pooling counts padded
	// elements in the denominator of the mean.
	// The default is true.
	ParamPoolCountIncludePad = "pool_count_include_pad"
)

// ToPair converts 1 or 2 values to a pair, one value per spatial axis.
// A single value is used for both axes.
//
// It panics for any other number of values or for values < 1.
func ToPair(name string, values ...int) (pair [2]int) {
	switch len(values) {
	case 1:
		pair = [2]int{values[0], values[0]}
	case 2:
		pair = [2]int{values[0], values[1]}
	default:
		Panicf("%s requires 1 or 2 values (one per spatial axis), got %d values: %v", name, len(values), values)
	}
	for _, v := range pair {
		if v < 1 {
			Panicf("%s values must be >= 1, got %v", name, values)
		}
	}
	return
}
