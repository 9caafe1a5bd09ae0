// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"fmt"
	"strings"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors/images"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// This file contains the 2D pooling layers: AvgPool2dSame, MaxPool2dSame and the CreatePool2d factory.

// PoolType selects the reduction of a pooling layer.
type PoolType int

const (
	PoolAvg PoolType = iota
	PoolMax
)

//go:generate go tool enumer -type=PoolType -trimprefix=Pool -transform=snake -values -text pool2d.go

// ParsePoolType converts "avg" or "max" (case-insensitive) to a PoolType.
func ParsePoolType(name string) (PoolType, error) {
	poolType, err := PoolTypeString(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return poolType, errors.Wrapf(err, "invalid pool type %q, valid values are %q", name, PoolTypeStrings())
	}
	return poolType, nil
}

var noDilation = [2]int{1, 1}

// AvgPool2dSame average pools x with TensorFlow "SAME" padding: the output has ceil(size/stride) elements on
// each spatial axis.
//
// x must be rank-4, shaped [batch, height, width, channels] for images.ChannelsLast or
// [batch, channels, height, width] for images.ChannelsFirst.
//
// If countIncludePad is true, the padding counts as zeros in the mean (PyTorch's AvgPool2dSame behavior).
// Otherwise, the padding is excluded from the mean, which is what TensorFlow does.
func AvgPool2dSame(x *Node, channelsAxisConfig images.ChannelsAxisConfig, kernelSize, stride [2]int,
	ceilMode, countIncludePad bool) *Node {
	paddings := samePaddings2d(x, spatialAxes2d(x, channelsAxisConfig), kernelSize, stride, noDilation)
	return pool2d(x, PoolAvg, channelsAxisConfig, kernelSize, stride, noDilation, paddings, ceilMode, countIncludePad)
}

// MaxPool2dSame max pools x with TensorFlow "SAME" padding: x is padded with -inf (the lowest value for
// integer dtypes) such that the output has ceil(size/stride) elements on each spatial axis.
//
// The padding takes the dilation into account, and dilation > 1 is supported.
//
// x must be rank-4, shaped [batch, height, width, channels] for images.ChannelsLast or
// [batch, channels, height, width] for images.ChannelsFirst.
func MaxPool2dSame(x *Node, channelsAxisConfig images.ChannelsAxisConfig, kernelSize, stride, dilation [2]int,
	ceilMode bool) *Node {
	paddings := samePaddings2d(x, spatialAxes2d(x, channelsAxisConfig), kernelSize, stride, dilation)
	return pool2d(x, PoolMax, channelsAxisConfig, kernelSize, stride, dilation, paddings, ceilMode, false)
}

// pool2d pools the spatial axes of x with the given (start, end) paddings per spatial axis.
//
// Padding is filled with -inf for max pooling. For average pooling it is filled with zeros and included in
// the mean only if countIncludePad. Extra padding added to emulate ceilMode is never included in the mean.
//
// The paddings go to the reduce-window of graph.SumPool and graph.MaxPool: only dilated max pooling pads x
// explicitly (see padSpatial).
func pool2d(x *Node, poolType PoolType, channelsAxisConfig images.ChannelsAxisConfig,
	kernelSize, stride, dilation [2]int, paddings [2][2]int, ceilMode, countIncludePad bool) *Node {
	spatialAxes := spatialAxes2d(x, channelsAxisConfig)
	dims := x.Shape().Dimensions
	var numOutputs [2]int
	poolPaddings := make([][2]int, 2)
	for ii, axis := range spatialAxes {
		var extra int
		extra, numOutputs[ii] = poolAxisGeometry(dims[axis], kernelSize[ii], stride[ii], dilation[ii],
			paddings[ii], ceilMode)
		poolPaddings[ii] = [2]int{paddings[ii][0], paddings[ii][1] + extra}
	}
	hasPadding := poolPaddings[0] != [2]int{} || poolPaddings[1] != [2]int{}

	switch poolType {
	case PoolAvg:
		if dilation != noDilation {
			Panicf("average pooling doesn't support dilation, got dilation=%v", dilation)
		}
		pool := SumPool(x).ChannelsAxis(channelsAxisConfig).
			WindowPerAxis(kernelSize[:]...).StridePerAxis(stride[:]...)
		if hasPadding {
			pool = pool.PaddingPerDim(poolPaddings)
		}
		counts := windowCounts2d(x, spatialAxes, numOutputs, kernelSize, stride, paddings, countIncludePad)
		return Div(pool.Done(), counts)

	case PoolMax:
		if dilation == noDilation {
			pool := MaxPool(x).ChannelsAxis(channelsAxisConfig).
				WindowPerAxis(kernelSize[:]...).StridePerAxis(stride[:]...)
			if hasPadding {
				pool = pool.PaddingPerDim(poolPaddings)
			}
			return pool.Done()
		}
		x = padSpatial(x, Infinity(x.Graph(), x.DType(), -1), spatialAxes,
			[2][2]int{poolPaddings[0], poolPaddings[1]})
		return dilatedMaxPool(x, spatialAxes, numOutputs, kernelSize, stride, dilation)

	default:
		Panicf("unsupported pool type %s: valid values are %v", poolType, PoolTypeValues())
	}
	return nil
}

// poolAxisGeometry returns the extra end padding that emulates ceilMode and the resulting number of outputs
// for one spatial axis.
func poolAxisGeometry(inputSize, kernelSize, stride, dilation int, paddings [2]int, ceilMode bool) (
	extra, numOutputs int) {
	extra = ceilModePadding(inputSize, kernelSize, stride, dilation, paddings, ceilMode)
	span := inputSize + paddings[0] + paddings[1] + extra - (dilation*(kernelSize-1) + 1)
	if span < 0 {
		Panicf("pooling window (kernel=%d, dilation=%d) larger than padded input (size=%d, paddings=%v)",
			kernelSize, dilation, inputSize, paddings)
	}
	return extra, span/stride + 1
}

// windowCounts returns, for each of the numOutputs windows of an axis, how many of its elements fall
// within [start, end). Positions are in input coordinates, so the first window starts at -startPadding.
func windowCounts(numOutputs, kernelSize, stride, startPadding, start, end int) []int {
	counts := make([]int, numOutputs)
	for ii := range counts {
		windowStart := ii*stride - startPadding
		counts[ii] = max(min(windowStart+kernelSize, end)-max(windowStart, start), 0)
	}
	return counts
}

// windowCounts2d returns the divisor of the average pooling for each output position, shaped to broadcast
// over the pooled sum: [1, height, width, 1] (or [1, 1, height, width] for channels first).
//
// The counts only depend on the static shapes, so they are built as a constant.
func windowCounts2d(x *Node, spatialAxes, numOutputs, kernelSize, stride [2]int, paddings [2][2]int,
	countIncludePad bool) *Node {
	dims := x.Shape().Dimensions
	var counts [2][]int
	for ii, axis := range spatialAxes {
		start, end := 0, dims[axis]
		if countIncludePad {
			start, end = -paddings[ii][0], dims[axis]+paddings[ii][1]
		}
		counts[ii] = windowCounts(numOutputs[ii], kernelSize[ii], stride[ii], paddings[ii][0], start, end)
	}
	values := make([][]float64, numOutputs[0])
	for row := range values {
		values[row] = make([]float64, numOutputs[1])
		for col := range values[row] {
			values[row][col] = float64(counts[0][row] * counts[1][col])
		}
	}
	countsDims := []int{1, 1, 1, 1}
	countsDims[spatialAxes[0]] = numOutputs[0]
	countsDims[spatialAxes[1]] = numOutputs[1]
	return Reshape(ConvertDType(Const(x.Graph(), values), x.DType()), countsDims...)
}

// dilatedMaxPool max pools the (already padded) x with dilated windows: graph.MaxPool has no window dilation,
// so it takes the element-wise Max of one strided slice of x per kernel position.
func dilatedMaxPool(x *Node, spatialAxes, numOutputs, kernelSize, stride, dilation [2]int) *Node {
	var pooled *Node
	for k0 := range kernelSize[0] {
		for k1 := range kernelSize[1] {
			specs := make([]SliceAxisSpec, x.Rank())
			for axis := range specs {
				specs[axis] = AxisRange()
			}
			for ii, offset := range [2]int{k0 * dilation[0], k1 * dilation[1]} {
				end := offset + (numOutputs[ii]-1)*stride[ii] + 1
				specs[spatialAxes[ii]] = AxisRange(offset, end).Stride(stride[ii])
			}
			window := Slice(x, specs...)
			if pooled == nil {
				pooled = window
			} else {
				pooled = Max(pooled, window)
			}
		}
	}
	return pooled
}

// Pool2d is a configured 2D pooling layer. It has no variables, so it can be applied to any number of inputs,
// in any graph.
//
// Create it with CreatePool2d, NewAvgPool2dSame or NewMaxPool2dSame.
type Pool2d struct {
	poolType                     PoolType
	kernelSize, stride, dilation [2]int
	padding                      [2]int
	dynamic                      bool
	ceilMode, countIncludePad    bool
	channelsAxisConfig           images.ChannelsAxisConfig
}

// Apply the pooling to x.
//
// x must be rank-4, shaped [batch, height, width, channels] for images.ChannelsLast (the default) or
// [batch, channels, height, width] for images.ChannelsFirst.
func (p *Pool2d) Apply(x *Node) *Node {
	if p.dynamic {
		switch p.poolType {
		case PoolAvg:
			return AvgPool2dSame(x, p.channelsAxisConfig, p.kernelSize, p.stride, p.ceilMode, p.countIncludePad)
		case PoolMax:
			return MaxPool2dSame(x, p.channelsAxisConfig, p.kernelSize, p.stride, p.dilation, p.ceilMode)
		}
	}
	paddings := [2][2]int{{p.padding[0], p.padding[0]}, {p.padding[1], p.padding[1]}}
	return pool2d(x, p.poolType, p.channelsAxisConfig, p.kernelSize, p.stride, p.dilation, paddings,
		p.ceilMode, p.countIncludePad)
}

// IsDynamic returns whether the padding is calculated from each input's shape ("SAME" padding).
func (p *Pool2d) IsDynamic() bool { return p.dynamic }

// Padding returns the static symmetric padding per spatial axis. It is zero for dynamic layers.
func (p *Pool2d) Padding() [2]int { return p.padding }

// KernelSize returns the window size per spatial axis.
func (p *Pool2d) KernelSize() [2]int { return p.kernelSize }

// Dilation returns the window dilation per spatial axis.
func (p *Pool2d) Dilation() [2]int { return p.dilation }

// Paddings returns the (start, end) paddings of each spatial axis for an input with the given spatial size,
// not including the extra end padding used to emulate ceil mode.
func (p *Pool2d) Paddings(inputSize [2]int) (paddings [2][2]int) {
	for ii := range paddings {
		if p.dynamic {
			paddings[ii] = SamePaddings(inputSize[ii], p.kernelSize[ii], p.stride[ii], p.dilation[ii])
		} else {
			paddings[ii] = [2]int{p.padding[ii], p.padding[ii]}
		}
	}
	return
}

// OutputSizes returns the spatial size of the output of Apply for an input with the given spatial size.
func (p *Pool2d) OutputSizes(inputSize [2]int) (sizes [2]int) {
	paddings := p.Paddings(inputSize)
	for ii := range sizes {
		_, sizes[ii] = poolAxisGeometry(inputSize[ii], p.kernelSize[ii], p.stride[ii], p.dilation[ii],
			paddings[ii], p.ceilMode)
	}
	return
}

// Type returns the pooling type.
func (p *Pool2d) Type() PoolType { return p.poolType }

// Stride returns the resolved stride per spatial axis.
func (p *Pool2d) Stride() [2]int { return p.stride }

// String implements fmt.Stringer, in the same format PyTorch prints its layers.
func (p *Pool2d) String() string {
	var parts []string
	add := func(format string, args ...any) { parts = append(parts, fmt.Sprintf(format, args...)) }
	add("kernel_size=%v", p.kernelSize)
	add("stride=%v", p.stride)
	if !p.dynamic {
		add("padding=%v", p.padding)
	}
	if p.poolType == PoolMax {
		add("dilation=%v", p.dilation)
	}
	add("ceil_mode=%v", p.ceilMode)
	if p.poolType == PoolAvg {
		add("count_include_pad=%v", p.countIncludePad)
	}
	name := "AvgPool2d"
	if p.poolType == PoolMax {
		name = "MaxPool2d"
	}
	if p.dynamic {
		name += "Same"
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// Pool2dBuilder configures a Pool2d. Create it with CreatePool2d, NewAvgPool2dSame or NewMaxPool2dSame,
// set the desired parameters and call Done.
type Pool2dBuilder struct {
	poolType                     PoolType
	kernelSize, stride, dilation [2]int
	strideSet                    bool
	paddingMode                  PaddingMode
	padding                      [2]int
	paddingSet, forceSame        bool
	ceilMode, countIncludePad    bool
	channelsAxisConfig           images.ChannelsAxisConfig
}

// CreatePool2d returns a builder for a 2D pooling layer of the given type and kernel size (1 value for both
// spatial axes, or one value per axis).
//
// When Done is called it resolves the padding mode (see GetPaddingValue): if the padding can be statically
// determined it creates a plain pooling layer with symmetric padding, otherwise it creates the "SAME" variant
// of the layer (AvgPool2dSame or MaxPool2dSame), that pads each input according to its shape.
//
// Defaults: stride equals the kernel size, PaddingDefault, dilation 1, no ceil mode, countIncludePad
// and images.ChannelsLast.
func CreatePool2d(poolType PoolType, kernelSize ...int) *Pool2dBuilder {
	return &Pool2dBuilder{
		poolType:           poolType,
		kernelSize:         ToPair("kernel size", kernelSize...),
		dilation:           noDilation,
		countIncludePad:    true,
		channelsAxisConfig: images.ChannelsLast,
	}
}

// NewAvgPool2dSame returns a builder for an average pooling layer that always uses dynamic "SAME" padding.
func NewAvgPool2dSame(kernelSize ...int) *Pool2dBuilder {
	b := CreatePool2d(PoolAvg, kernelSize...)
	b.forceSame = true
	return b
}

// NewMaxPool2dSame returns a builder for a max pooling layer that always uses dynamic "SAME" padding.
func NewMaxPool2dSame(kernelSize ...int) *Pool2dBuilder {
	b := CreatePool2d(PoolMax, kernelSize...)
	b.forceSame = true
	return b
}

// CreatePool2dFromContext is like CreatePool2d, but the configuration is taken from the context
// hyperparameters ParamPoolType, ParamPoolPadding, ParamPoolStride, ParamPoolDilation, ParamPoolCeilMode
// and ParamPoolCountIncludePad.
//
// The returned builder can still be further configured.
func CreatePool2dFromContext(ctx *context.Context, kernelSize ...int) *Pool2dBuilder {
	poolType, err := ParsePoolType(context.GetParamOr(ctx, ParamPoolType, "max"))
	if err != nil {
		Panicf("hyperparameter %q: %v", ParamPoolType, err)
	}
	paddingMode, err := ParsePaddingMode(context.GetParamOr(ctx, ParamPoolPadding, ""))
	if err != nil {
		Panicf("hyperparameter %q: %v", ParamPoolPadding, err)
	}
	b := CreatePool2d(poolType, kernelSize...).
		Padding(paddingMode).
		Dilation(context.GetParamOr(ctx, ParamPoolDilation, 1)).
		CeilMode(context.GetParamOr(ctx, ParamPoolCeilMode, false)).
		CountIncludePad(context.GetParamOr(ctx, ParamPoolCountIncludePad, true))
	if stride := context.GetParamOr(ctx, ParamPoolStride, 0); stride > 0 {
		b.Stride(stride)
	}
	return b
}

// Stride sets the stride (1 value for both spatial axes, or one value per axis).
// The default is the kernel size.
func (b *Pool2dBuilder) Stride(strides ...int) *Pool2dBuilder {
	b.stride = ToPair("stride", strides...)
	b.strideSet = true
	return b
}

// Dilation sets the window dilation (1 value for both spatial axes, or one value per axis).
// Only max pooling supports dilation > 1. The default is 1.
func (b *Pool2dBuilder) Dilation(dilations ...int) *Pool2dBuilder {
	b.dilation = ToPair("dilation", dilations...)
	return b
}

// Padding sets the padding mode. The default is PaddingDefault.
// It is ignored by NewAvgPool2dSame and NewMaxPool2dSame, which always pad "SAME".
func (b *Pool2dBuilder) Padding(mode PaddingMode) *Pool2dBuilder {
	b.paddingMode = mode
	b.paddingSet = false
	return b
}

// PaddingValue sets an explicit symmetric padding (1 value for both spatial axes, or one value per axis),
// overriding the padding mode.
func (b *Pool2dBuilder) PaddingValue(paddings ...int) *Pool2dBuilder {
	switch len(paddings) {
	case 1:
		b.padding = [2]int{paddings[0], paddings[0]}
	case 2:
		b.padding = [2]int{paddings[0], paddings[1]}
	default:
		Panicf("padding requires 1 or 2 values (one per spatial axis), got %v", paddings)
	}
	if b.padding[0] < 0 || b.padding[1] < 0 {
		Panicf("padding must be >= 0, got %v", paddings)
	}
	b.paddingSet = true
	return b
}

// CeilMode sets whether to use ceil instead of floor to compute the output size, that is, whether to
// include a last partial window. The default is false.
func (b *Pool2dBuilder) CeilMode(ceilMode bool) *Pool2dBuilder {
	b.ceilMode = ceilMode
	return b
}

// CountIncludePad sets whether average pooling includes the padding in the mean. The default is true.
// It has no effect in max pooling.
func (b *Pool2dBuilder) CountIncludePad(countIncludePad bool) *Pool2dBuilder {
	b.countIncludePad = countIncludePad
	return b
}

// ChannelsAxis configures the axis for the channels (aka. "depth" or "features") dimension.
// The default is images.ChannelsLast, meaning inputs are shaped [batch, height, width, channels].
func (b *Pool2dBuilder) ChannelsAxis(channelsAxisConfig images.ChannelsAxisConfig) *Pool2dBuilder {
	b.channelsAxisConfig = channelsAxisConfig
	return b
}

// Done resolves the configuration and returns the pooling layer.
func (b *Pool2dBuilder) Done() *Pool2d {
	if !b.poolType.IsAPoolType() {
		Panicf("unsupported pool type %s: valid values are %v", b.poolType, PoolTypeValues())
	}
	if b.poolType == PoolAvg && b.dilation != noDilation {
		Panicf("average pooling doesn't support dilation, got dilation=%v", b.dilation)
	}
	p := &Pool2d{
		poolType:           b.poolType,
		kernelSize:         b.kernelSize,
		stride:             b.stride,
		dilation:           b.dilation,
		ceilMode:           b.ceilMode,
		countIncludePad:    b.countIncludePad,
		channelsAxisConfig: b.channelsAxisConfig,
	}
	if !b.strideSet {
		p.stride = b.kernelSize
	}
	switch {
	case b.forceSame:
		p.dynamic = true
	case b.paddingSet:
		p.padding = b.padding
	default:
		for ii := range p.padding {
			var dynamic bool
			p.padding[ii], dynamic = GetPaddingValue(b.paddingMode, p.kernelSize[ii], p.stride[ii], p.dilation[ii])
			p.dynamic = p.dynamic || dynamic
		}
		if p.dynamic {
			p.padding = [2]int{}
		}
	}
	klog.V(1).Infof("created pooling layer %s", p)
	return p
}
