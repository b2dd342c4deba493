package main

import (
	"os"
	"testing"
)

func TestMainExitCodes(t *testing.T) {
	var codes []int
	old := exitFunc
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc = old }()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"timeslider", "divide", "2024-01-01", "2024-01-03", "2", "--storage.driver", "memory"}
	main()
	os.Args = []string{"timeslider", "divide", "not-a-time", "2024-01-03", "2", "--storage.driver", "memory"}
	main()
	if len(codes) != 2 || codes[0] != 0 || codes[1] != 1 {
		t.Fatalf("unexpected exit codes: %v", codes)
	}
}
