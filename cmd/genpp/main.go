package main

import "github.com/PDLPorters/genpp/pkg/cli"

func main() {
	cli.Run()
}
