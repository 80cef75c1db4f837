package main

import "github.com/MeKo-Tech/pdfmark/cmd/pdfmark/cmd"

func main() {
	cmd.Execute()
}
