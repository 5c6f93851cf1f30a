package main

import "github.com/artverse/ingest/api"

func main() {
	api.Init()
}
