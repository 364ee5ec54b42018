// Command regionctl inspects and edits region files.
package main

func main() {
	execute()
}
