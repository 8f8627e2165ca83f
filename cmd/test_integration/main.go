// Command test_integration drives a running server through login, a full workflow run,
// an intervention and the read endpoints.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("BASE_URL"); v != "" {
		baseURL = v
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Opening session...")
	var session struct {
		Token string `json:"token"`
	}
	if !sendRequest("POST", "/api/session", nil, "", &session) || session.Token == "" {
		fail("Open session")
	}
	fmt.Println("PASSED: Open session")

	fmt.Println("2. Running agentic workflow...")
	var state struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
		Steps []struct {
			Action string `json:"action"`
			Status string `json:"status"`
		} `json:"steps"`
		Plan *string `json:"plan"`
	}
	if !sendRequest("POST", "/api/workflow?wait=true", nil, session.Token, &state) || state.Plan == nil {
		fail("Agentic workflow")
	}
	for _, s := range state.Steps {
		fmt.Printf("   %-10s %s\n", s.Status, s.Action)
	}
	fmt.Println("PASSED: Agentic workflow")

	if len(state.Reports) > 0 {
		fmt.Println("3. Running intervention...")
		if !sendRequest("POST", "/api/reports/"+state.Reports[0].ID+"/intervention?wait=true", nil, session.Token, nil) {
			fail("Intervention")
		}
		fmt.Println("PASSED: Intervention")
	}

	fmt.Println("4. Reading knowledge grid, markers and audit log...")
	for _, path := range []string{"/api/reports", "/api/map/markers", "/api/audit?status=all", "/api/plan"} {
		if !sendRequest("GET", path, nil, "", nil) {
			fail("GET " + path)
		}
	}
	fmt.Println("PASSED: Read endpoints")

	fmt.Println("5. Closing session...")
	if !sendRequest("DELETE", "/api/session", nil, session.Token, nil) {
		fail("Close session")
	}
	fmt.Println("PASSED: Close session")
}

func fail(step string) {
	fmt.Println("FAILED: " + step)
	os.Exit(1)
}

func sendRequest(method, endpoint string, payload interface{}, token string, out interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			fmt.Printf("Error decoding response: %v\n", err)
			return false
		}
		return true
	}
	fmt.Printf("Response: %.200s\n", string(respBody))
	return true
}
