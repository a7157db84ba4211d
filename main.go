package main

import (
	"fmt"
	"os"

	"fieldops/api-gateway/internal/cli"
)

// @title FieldOps Job Lifecycle API
// @version 1.0
// @description Status transitions and completion of dispatched field service jobs.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
