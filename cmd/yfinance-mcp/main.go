package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/reinhart/finAgent/internal/finance"
	"github.com/reinhart/finAgent/internal/logger"
)

func main() {
	// stdout carries the protocol, so logs go to stderr.
	logger.SetOutput(os.Stderr)
	logger.Init()

	srv := finance.NewServer(finance.NewClient())
	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
