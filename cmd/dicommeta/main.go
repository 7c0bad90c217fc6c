package main

import (
	"os"

	"dicom-metadata/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
