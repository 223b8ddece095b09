//go:build !durable

package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/durabletest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stringify := durable.Func("stringify", func(ctx context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	})

	double := durable.Func("double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	doubleAndRepeat := durable.Func("double-repeat", func(ctx context.Context, n int) (string, error) {
		doubled, err := double.Await(n)
		if err != nil {
			return "", err
		}
		stringified, err := stringify.Await(doubled)
		if err != nil {
			return "", err
		}
		return strings.Repeat(stringified, doubled), nil
	})

	runner := durabletest.NewRunner(stringify, double, doubleAndRepeat)

	output, err := durabletest.Call(runner, doubleAndRepeat, 4)
	if err != nil {
		return err
	}
	if output != "88888888" {
		return fmt.Errorf("unexpected output: %q", output)
	}
	return nil
}
