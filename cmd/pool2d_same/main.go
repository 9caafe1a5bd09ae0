// pool2d_same prints how a 2D pooling layer pads its input: whether the padding is static (symmetric) or
// dynamic (TensorFlow "SAME", calculated from the input shape), the paddings per spatial axis and the
// resulting output sizes.
//
// Example:
//
//	pool2d_same -input=224,224 -kernel=3 -stride=2 -padding=same -type=max -run
//
// With -run it also executes the pooling on an iota image, using the backend configured by GOMLX_BACKEND
// (it defaults to the pure Go backend).
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gomlx/types/tensors/images"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/jimm/models/layers"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagInput    = flag.String("input", "224,224", "Spatial size of the input: height,width (or a single value for both).")
	flagKernel   = flag.String("kernel", "3", "Kernel size: one value, or height,width.")
	flagStride   = flag.String("stride", "", "Stride: one value, or height,width. Defaults to the kernel size.")
	flagDilation = flag.String("dilation", "1", "Window dilation: one value, or height,width. Only for max pooling.")
	flagPadding  = flag.String("padding", "same",
		fmt.Sprintf("Padding mode, one of %q (empty is the same as \"default\", PyTorch's symmetric padding).",
			layers.PaddingModeStrings()))
	flagType            = flag.String("type", "max", fmt.Sprintf("Pooling type, one of %q.", layers.PoolTypeStrings()))
	flagCeilMode        = flag.Bool("ceil", false, "Use ceil mode to calculate the output size.")
	flagCountIncludePad = flag.Bool("count_include_pad", true, "Average pooling includes the padding in the mean.")
	flagChannelsFirst   = flag.Bool("channels_first", false, "Input shaped [batch, channels, height, width].")
	flagBatch           = flag.Int("batch", 1, "Batch size used with -run.")
	flagChannels        = flag.Int("channels", 1, "Number of channels used with -run.")
	flagRun             = flag.Bool("run", false, "Execute the pooling on an iota input and print the result.")
	flagMaxPrint        = flag.Int("max_print", 64, "Print the output values with -run if it has at most this many elements.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %q. See 'pool2d_same -help'.", flag.Args())
		os.Exit(1)
	}

	inputSize := layers.ToPair("input", must.M1(parseInts("input", *flagInput))...)
	pool := buildPool()
	report(pool, inputSize)
	if *flagRun {
		run(pool, inputSize)
	}
}

// parseInts parses a comma-separated list of integers.
func parseInts(name, value string) ([]int, error) {
	var values []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for -%s=%q", name, value)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.Errorf("-%s requires at least one value", name)
	}
	return values, nil
}

func buildPool() *layers.Pool2d {
	poolType := must.M1(layers.ParsePoolType(*flagType))
	paddingMode := must.M1(layers.ParsePaddingMode(*flagPadding))
	b := layers.CreatePool2d(poolType, must.M1(parseInts("kernel", *flagKernel))...).
		Padding(paddingMode).
		Dilation(must.M1(parseInts("dilation", *flagDilation))...).
		CeilMode(*flagCeilMode).
		CountIncludePad(*flagCountIncludePad)
	if *flagStride != "" {
		b.Stride(must.M1(parseInts("stride", *flagStride))...)
	}
	if *flagChannelsFirst {
		b.ChannelsAxis(images.ChannelsFirst)
	}
	return b.Done()
}

// report prints the layer, its paddings and output size per spatial axis, and returns the output size.
func report(pool *layers.Pool2d, inputSize [2]int) (outputSize [2]int) {
	fmt.Println(titleStyle.Render(pool.String()))
	strategy := "static"
	if pool.IsDynamic() {
		strategy = "dynamic (\"SAME\" per input)"
	}
	fmt.Printf("    padding: %s\n\n", strategy)

	kernel, stride, dilation := pool.KernelSize(), pool.Stride(), pool.Dilation()
	paddings := pool.Paddings(inputSize)
	outputSize = pool.OutputSizes(inputSize)
	table := newPlainTable(lipgloss.Left, lipgloss.Right).
		Headers("axis", "input", "kernel", "stride", "dilation", "pad start", "pad end", "output")
	for ii, axisName := range []string{"height", "width"} {
		table.Row(axisName, strconv.Itoa(inputSize[ii]), strconv.Itoa(kernel[ii]), strconv.Itoa(stride[ii]),
			strconv.Itoa(dilation[ii]), strconv.Itoa(paddings[ii][0]), strconv.Itoa(paddings[ii][1]),
			strconv.Itoa(outputSize[ii]))
	}
	fmt.Println(table.Render())
	fmt.Printf("    input pixels: %s, output pixels: %s\n",
		humanize.Comma(int64(inputSize[0]*inputSize[1])), humanize.Comma(int64(outputSize[0]*outputSize[1])))
	return
}

// execute applies the pooling to an iota input of the given spatial size, shaped according to -batch,
// -channels and -channels_first.
func execute(backend backends.Backend, pool *layers.Pool2d, inputSize [2]int) (inputShape shapes.Shape,
	output *tensors.Tensor) {
	dims := []int{*flagBatch, inputSize[0], inputSize[1], *flagChannels}
	if *flagChannelsFirst {
		dims = []int{*flagBatch, *flagChannels, inputSize[0], inputSize[1]}
	}
	inputShape = shapes.Make(dtypes.Float32, dims...)
	exec := graph.NewExec(backend, func(g *graph.Graph) *graph.Node {
		return pool.Apply(graph.IotaFull(g, inputShape))
	})
	output = exec.Call()[0]
	return
}

func run(pool *layers.Pool2d, inputSize [2]int) {
	if os.Getenv("GOMLX_BACKEND") == "" {
		backends.DefaultConfig = "go"
	}
	backend := backends.MustNew()
	klog.V(1).Infof("backend: %s", backend.Description())

	inputShape, output := execute(backend, pool, inputSize)
	fmt.Printf("    run: input.shape=%s -> output.shape=%s (%s)\n",
		inputShape, output.Shape(), humanize.Bytes(uint64(output.Shape().Memory())))
	if output.Shape().Size() <= *flagMaxPrint {
		fmt.Printf("    output=%s\n", output.GoStr())
	}
}
