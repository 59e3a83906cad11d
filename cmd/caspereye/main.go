package main

import "github.com/Pratik-Shirodkar/CasperEye/internal/cli"

func main() {
	cli.Execute()
}
