package main

import "github.com/artverse/ingest/backfill"

func main() {
	backfill.Init()
}
