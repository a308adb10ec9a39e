package main

import (
	"randomradio/cmd"
)

func main() {
	cmd.Execute()
}
