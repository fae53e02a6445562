package main

import (
	"os"

	"github.com/pezhmanazar/phoenix-admin/internal/cli"
	"github.com/pezhmanazar/phoenix-admin/internal/output"
)

func main() {
	deps := &cli.Dependencies{}
	err := cli.NewRootCmd(deps).Execute()
	if deps.Logger != nil {
		_ = deps.Logger.Sync()
	}
	if err != nil {
		output.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}
