package main

import (
	"os"

	"github.com/skripsifalana/wisnus-chatbot-survey/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
