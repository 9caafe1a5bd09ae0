// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pooltest holds test utilities for the packages that build pooling graphs.
//
// Tests run by default on the pure Go backend ("go"), so they don't require XLA/PJRT to be installed.
// Set GOMLX_BACKEND to run them on a different backend (the backend must be linked into the test binary).
//
// The pure Go backend has no Pad and no SelectAndScatter ops, which the gradients of the pooling ops use:
// tests of gradients call RequireOps and are skipped there.
package pooltest

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/require"
)

// Delta is the default margin accepted in the comparison of float values.
const Delta = 1e-4

var (
	backendOnce   sync.Once
	cachedBackend backends.Backend
)

// BuildTestBackend returns the backend shared by all tests. It defaults to the pure Go backend, unless
// GOMLX_BACKEND is set.
func BuildTestBackend() backends.Backend {
	backendOnce.Do(func() {
		if os.Getenv("GOMLX_BACKEND") == "" {
			backends.DefaultConfig = "go"
		}
		cachedBackend = backends.MustNew()
		fmt.Printf("Backend: %s\n", cachedBackend.Description())
	})
	return cachedBackend
}

// RequireOps skips the test if the test backend doesn't implement all the given operations.
func RequireOps(t *testing.T, ops ...backends.OpType) {
	backend := BuildTestBackend()
	supported := backend.Capabilities().Operations
	for _, op := range ops {
		if !supported[op] {
			t.Skipf("backend %q doesn't support %s, set GOMLX_BACKEND to a backend that does", backend.Name(), op)
		}
	}
}

// FnOneInput builds a graph with one input and one output.
type FnOneInput func(g *graph.Graph) (input, output *graph.Node)

// FnGradients builds a graph whose output is differentiated with respect to nodesForGrad.
type FnGradients func(g *graph.Graph) (output *graph.Node, nodesForGrad []*graph.Node)

// Run executes graphFn and returns the value of all its outputs.
func Run(t *testing.T, graphFn func(g *graph.Graph) []*graph.Node) []*tensors.Tensor {
	backend := BuildTestBackend()
	var results []*tensors.Tensor
	require.NotPanics(t, func() { results = graph.NewExec(backend, graphFn).Call() })
	return results
}

// TestFuncOneInput executes graphFn and checks that its output matches want, within Delta.
func TestFuncOneInput(t *testing.T, testName string, graphFn FnOneInput, want any) {
	t.Run(testName, func(t *testing.T) {
		results := Run(t, func(g *graph.Graph) []*graph.Node {
			input, output := graphFn(g)
			return []*graph.Node{input, output}
		})
		input, output := results[0], results[1]
		fmt.Printf("%s:\n\tinput=%s\n\toutput=%s\n", testName, input.GoStr(), output.GoStr())
		wantTensor := tensors.FromAnyValue(want)
		require.Truef(t, wantTensor.Shape().Equal(output.Shape()), "%s: want shape %s, got %s",
			testName, wantTensor.Shape(), output.Shape())
		require.Truef(t, wantTensor.InDelta(output, Delta), "%s: want %v, got %s", testName, want, output.GoStr())
	})
}

// TestGradients checks the gradient of the sum of output with respect to each of nodesForGrad.
func TestGradients(t *testing.T, testName string, graphFn FnGradients, want []any) {
	t.Run(testName, func(t *testing.T) {
		var numGrads int
		results := Run(t, func(g *graph.Graph) []*graph.Node {
			output, nodesForGrad := graphFn(g)
			numGrads = len(nodesForGrad)
			return graph.Gradient(graph.ReduceAllSum(output), nodesForGrad...)
		})
		require.Len(t, want, numGrads, "%s: number of wanted gradients", testName)
		for ii, grad := range results {
			fmt.Printf("%s: gradient #%d=%s\n", testName, ii, grad.GoStr())
			require.Truef(t, tensors.FromAnyValue(want[ii]).InDelta(grad, Delta),
				"%s: gradient #%d: want %v, got %s", testName, ii, want[ii], grad.GoStr())
		}
	})
}
