package main

import "github.com/artverse/ingest/listener"

func main() {
	listener.Init()
}
