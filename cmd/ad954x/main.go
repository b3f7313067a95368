package main

import "github.com/OpenTraceLab/ad954x/cmd/ad954x/cmd"

func main() {
	cmd.Execute()
}
