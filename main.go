package main

import "github.com/chase3718/airchords/cmd"

func main() {
	cmd.Execute()
}
