package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError 携带进程退出码；err 为 nil 表示结果已经输出过，无需再打印。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError 表示参数错误（退出码 2）。
func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// failed 表示结果失败且已输出（退出码 1）。
var failed = &exitError{code: 1}

// run 执行一次 CLI 调用并返回退出码：0 成功，1 结果失败，2 参数错误。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newCLI(stdout, stderr).rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			prefix := "错误"
			if ee.code == 2 {
				prefix = "参数错误"
			}
			fmt.Fprintf(stderr, "%s：%v\n", prefix, ee.err)
		}
		return ee.code
	}

	// cobra 自身的参数/flag 解析错误。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	fmt.Fprintf(stderr, "使用 \"mvbrowse --help\" 查看用法。\n")
	return 2
}
