// Command fibctl queries a running fibserver.
//
//	fibctl fibonacci 10
//	fibctl --ws fibonacci 10 11 12
//	fibctl age 1990
//	fibctl email tom@example.com
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gopub/conv"
	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/client"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/ws"
	"github.com/gopub/log"
	"github.com/spf13/pflag"
)

var logger = log.Default().Derive("fibctl")

func main() {
	server := pflag.StringP("server", "s", "http://127.0.0.1:3000", "server base url")
	timeout := pflag.DurationP("timeout", "t", 30*time.Second, "timeout of each command")
	useWS := pflag.Bool("ws", false, "send fibonacci requests over websocket")
	verbose := pflag.BoolP("verbose", "v", false, "dump requests")
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: fibctl [flags] fibonacci|age|email <arg>...")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch cmd, params := args[0], args[1:]; cmd {
	case "fibonacci", "fib":
		if *useWS {
			err = fibonacciOverWS(ctx, *server, params)
		} else {
			err = fibonacci(ctx, newClient(*server, *verbose), params)
		}
	case "age":
		err = age(ctx, newClient(*server, *verbose), params)
	case "email":
		err = email(ctx, newClient(*server, *verbose), params)
	default:
		err = errors.BadRequest("unknown command %q", cmd)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func newClient(server string, verbose bool) *client.Client {
	c := client.New(server, nil)
	c.RequestLogging = verbose
	return c
}

func parseIndexes(params []string) ([]uint32, error) {
	l := make([]uint32, len(params))
	for i, p := range params {
		n, err := conv.ToUint64(p)
		if err != nil || n > uint64(^uint32(0)) {
			return nil, errors.BadRequest("invalid n %q", p)
		}
		l[i] = uint32(n)
	}
	return l, nil
}

func fibonacci(ctx context.Context, c *client.Client, params []string) error {
	indexes, err := parseIndexes(params)
	if err != nil {
		return err
	}
	for _, n := range indexes {
		s, err := c.FibonacciText(ctx, n)
		if err != nil {
			return err
		}
		fmt.Println(s)
	}
	return nil
}

func fibonacciOverWS(ctx context.Context, server string, params []string) error {
	indexes, err := parseIndexes(params)
	if err != nil {
		return err
	}
	addr := "ws" + strings.TrimPrefix(strings.TrimSuffix(server, "/"), "http") + "/ws/fibonacci"
	c, err := ws.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer c.Close()
	for _, n := range indexes {
		v, err := c.Fibonacci(ctx, n)
		if err != nil {
			return err
		}
		fmt.Println(fib.Text(n, v))
	}
	return nil
}

func age(ctx context.Context, c *client.Client, params []string) error {
	for _, p := range params {
		year, err := conv.ToUint64(p)
		if err != nil || year > uint64(^uint16(0)) {
			return errors.BadRequest("invalid year %q", p)
		}
		s, err := c.Age(ctx, uint16(year))
		if err != nil {
			return err
		}
		fmt.Println(s)
	}
	return nil
}

func email(ctx context.Context, c *client.Client, params []string) error {
	for _, p := range params {
		valid, err := c.ValidateEmail(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("%s valid=%t\n", p, valid)
	}
	return nil
}
