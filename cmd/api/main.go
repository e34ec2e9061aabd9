package main

import "vitrine/internal/app/cli"

// API process entrypoint.
// Data flow:
// 1) Load config (file + VITRINE_* env).
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	cli.Execute()
}
