package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/nexkasa/gateway-harness/diag"
)

/* diagnose runs the three canned probes against a test-connection
 * endpoint and prints what the server saw for each client shape
 */

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8000/api/test-connection/", "test-connection endpoint to probe")
	flag.Parse()

	ctx := context.Background()
	runner := diag.NewRunner(diag.NewClient())

	fmt.Printf("Running Diagnostics on: %s\n", *baseURL)
	fmt.Println(strings.Repeat("-", 50))

	probes := []struct {
		label    string
		testType string
	}{
		{"Normal Browser Simulation (HTTPS + User-Agent)", diag.TestBrowser},
		{"Bot Simulation (Empty User-Agent)", diag.TestBot},
		{"HTTP (Insecure) Request", diag.TestHTTP},
	}

	for i, probe := range probes {
		fmt.Printf("[%d] Test: %s\n", i+1, probe.label)

		result, err := runner.Run(ctx, diag.Input{
			TargetURL: *baseURL,
			TestType:  probe.testType,
		})
		if err != nil {
			fmt.Printf("--> FAILED: %v\n", err)
			fmt.Println(strings.Repeat("-", 50))
			continue
		}
		if result.Error != "" {
			fmt.Printf("--> FAILED: %s\n", result.Error)
			fmt.Println(strings.Repeat("-", 50))
			continue
		}

		fmt.Printf("--> Status Code: %d\n", result.StatusCode)
		if pretty, err := json.MarshalIndent(result.Body, "", "  "); err == nil {
			fmt.Printf("--> Response: %s\n", pretty)
		}
		fmt.Println(strings.Repeat("-", 50))
	}
}
