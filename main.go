package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/qlearn/benchmarks"
)

// main entry point to all the experiments
func main() {
	gin.SetMode(gin.ReleaseMode)

	// rootCommand defines a command line argument parser (some arguments and a subcommand to run)
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
