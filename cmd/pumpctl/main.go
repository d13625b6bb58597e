/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>
*/

package main

import "github.com/jt05610/syringe/cmd/pumpctl/cmd"

func main() {
	cmd.Execute()
}
