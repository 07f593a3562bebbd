package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Smoke test that walks one applicant through the whole pipeline against a
// running server. Usage: journey [base-url]

type idResponse struct {
	ID int64 `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type submission struct {
	step    string
	payload map[string]interface{}
}

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	fmt.Println("=== Admissions Journey Test ===")
	fmt.Printf("Server: %s\n\n", baseURL)

	runID := uuid.NewString()
	// Submissions are not idempotent, so only reads are retried.
	client := newClient(baseURL, runID, 0)
	reads := newClient(baseURL, runID, 2)

	// Step 1: Health
	fmt.Println("[Step 1] Checking health...")
	resp, err := reads.R().Get("/health")
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Printf("✓ %d %s\n", resp.StatusCode(), resp.String())

	// Step 2: Create applicant
	fmt.Println("\n[Step 2] Creating applicant...")
	var created idResponse
	resp, err = client.R().
		SetBody(map[string]string{
			"email":      fmt.Sprintf("journey-%s@example.com", runID[:8]),
			"first_name": "Journey",
			"last_name":  "Tester",
		}).
		SetResult(&created).
		Post("/api/users")
	mustOK(resp, err)
	fmt.Printf("✓ Applicant id: %d\n", created.ID)

	// Step 3: Walk the pipeline
	interviewDate := time.Now().Add(24 * time.Hour).UTC().Format("2006-01-02")
	now := time.Now().UTC().Format(time.RFC3339)
	steps := []submission{
		{"IQ Test", map[string]interface{}{"score": 82}},
		{"Interview", map[string]interface{}{"interview_date": interviewDate}},
		{"Interview", map[string]interface{}{
			"interview_date": interviewDate,
			"interviewer_id": "journey-interviewer",
			"decision":       "passed_interview",
		}},
		{"Sign Contract", map[string]interface{}{"passport_number": "J0000001", "timestamp": now}},
		{"Sign Contract", map[string]interface{}{"timestamp": now}},
		{"Payment", map[string]interface{}{}},
		{"Join Slack", map[string]interface{}{}},
	}

	fmt.Println("\n[Step 3] Completing steps...")
	for _, s := range steps {
		resp, err := client.R().
			SetBody(map[string]interface{}{
				"user_id":      created.ID,
				"step_name":    s.step,
				"step_payload": s.payload,
			}).
			SetError(&errorResponse{}).
			Put("/api/steps/complete")
		mustOK(resp, err)
		fmt.Printf("✓ %s\n", s.step)
	}

	// Step 4: Final status
	fmt.Println("\n[Step 4] Checking status...")
	var status statusResponse
	resp, err = reads.R().SetResult(&status).Get(fmt.Sprintf("/api/users/%d/status", created.ID))
	mustOK(resp, err)
	if status.Status != "accepted" {
		log.Fatalf("✗ Expected accepted, got %s", status.Status)
	}
	fmt.Println("✓ Applicant accepted")

	// Step 5: History
	fmt.Println("\n[Step 5] Fetching history...")
	resp, err = reads.R().Get(fmt.Sprintf("/api/users/%d/history", created.ID))
	mustOK(resp, err)
	fmt.Println(resp.String())

	fmt.Println("\n=== Journey complete ===")
}

func newClient(baseURL, runID string, retries int) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", runID)
}

func mustOK(resp *resty.Response, err error) {
	if err != nil {
		log.Fatalf("✗ Request failed: %v", err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*errorResponse); ok && e.Kind != "" {
			log.Fatalf("✗ %s %s: %d %s (%s)", resp.Request.Method, resp.Request.URL, resp.StatusCode(), e.Error, e.Kind)
		}
		log.Fatalf("✗ %s %s: %d %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.String())
	}
}
