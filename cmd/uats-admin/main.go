package main

import (
	"github.com/turtacn/uats/cmd/cli"
)

// main is the entry point for the uats-admin command-line tool.
// It delegates all execution to the Execute function provided by the cli package.
// main 是 uats-admin 命令行工具的入口点。
func main() {
	cli.Execute()
}
