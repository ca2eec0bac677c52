// Command qsemantic is the Q-Semantic Explorer CLI.
package main

import "github.com/diogo/qsemantic/internal/commands"

func main() {
	commands.Execute()
}
