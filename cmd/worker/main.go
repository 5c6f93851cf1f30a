package main

import "github.com/artverse/ingest/worker"

func main() {
	worker.Init()
}
