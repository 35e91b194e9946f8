// Command inkctl is the operator CLI for Inkwell: schema, demo data and
// read-only views of the live site.
package main

import "inkwell/cmd/inkctl/commands"

func main() {
	commands.Execute()
}
