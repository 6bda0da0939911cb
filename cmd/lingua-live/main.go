// Command lingua-live is a terminal voice tutor: pick a language, connect and
// talk with a live model that answers by voice.
//
// Usage:
//
//	lingua-live [--config file] [--language fr] [--transport websocket|genai]
//	            [--input portaudio|miniaudio|none] [--output miniaudio|virtual]
//
// The API key is read from GEMINI_API_KEY or GOOGLE_API_KEY, also from a .env
// file in the working directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
