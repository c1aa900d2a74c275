package main

import "montage-media/cmd"

func main() {
	cmd.Execute()
}
