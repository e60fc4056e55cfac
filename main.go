package main

import (
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/anvil-platform/delegatehoist/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}
