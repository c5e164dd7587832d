package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/mna/vesper/internal/clicmd"
)

var (
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := clicmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
