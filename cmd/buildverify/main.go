// Command buildverify calibrates the floor markers of a camera and runs the
// build and face verification loop.
package main

func main() {
	Execute()
}
