package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type step struct {
	Name       string
	Method     string
	Path       string
	Body       interface{}
	WantStatus int
	CaptureID  string
}

type result struct {
	Step     step
	Status   int
	Pass     bool
	Duration time.Duration
	Error    error
}

// Drives one scheduling round trip against a running instance: roster
// creation, block publication, assignment with a forced collision, dated
// lesson with a forced collision, then cleanup. Exits non-zero when any
// step misses its expected status.
func main() {
	var (
		base    string
		prefix  string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	ids := map[string]string{}
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	steps := []step{
		{Name: "health", Method: http.MethodGet, Path: "/health", WantStatus: http.StatusOK},
		{Name: "create instructor", Method: http.MethodPost, Path: prefix + "/instructors", WantStatus: http.StatusCreated, CaptureID: "instructor", Body: map[string]interface{}{
			"email":     "smoke-instructor-" + suffix + "@example.com",
			"full_name": "Smoke Instructor",
			"specialty": "piano",
		}},
		{Name: "create student", Method: http.MethodPost, Path: prefix + "/students", WantStatus: http.StatusCreated, CaptureID: "student", Body: map[string]interface{}{
			"email":     "smoke-student-" + suffix + "@example.com",
			"full_name": "Smoke Student",
			"level":     "beginner",
		}},
		{Name: "create block", Method: http.MethodPost, Path: prefix + "/instructors/{instructor}/blocks", WantStatus: http.StatusCreated, CaptureID: "block", Body: map[string]interface{}{
			"day_of_week": 1,
			"start_time":  "10:00",
			"end_time":    "12:00",
			"location":    "smoke-studio-" + suffix,
		}},
		{Name: "assign lesson", Method: http.MethodPost, Path: prefix + "/assignments", WantStatus: http.StatusCreated, Body: map[string]interface{}{
			"instructor_id":    "{instructor}",
			"student_id":       "{student}",
			"time_block_id":    "{block}",
			"start_time":       "10:00",
			"duration_minutes": 45,
		}},
		{Name: "assign overlapping lesson", Method: http.MethodPost, Path: prefix + "/assignments", WantStatus: http.StatusConflict, Body: map[string]interface{}{
			"instructor_id":    "{instructor}",
			"student_id":       "{student}",
			"time_block_id":    "{block}",
			"start_time":       "10:15",
			"duration_minutes": 45,
		}},
		{Name: "release assignment", Method: http.MethodDelete, Path: prefix + "/assignments", WantStatus: http.StatusOK, Body: map[string]interface{}{
			"instructor_id": "{instructor}",
			"student_id":    "{student}",
		}},
		{Name: "create lesson", Method: http.MethodPost, Path: prefix + "/lessons", WantStatus: http.StatusCreated, CaptureID: "lesson", Body: map[string]interface{}{
			"instructor_id": "{instructor}",
			"student_id":    "{student}",
			"lesson_date":   "2027-03-01",
			"start_time":    "10:00",
			"end_time":      "11:00",
			"location":      "smoke-studio-" + suffix,
		}},
		{Name: "create colliding lesson", Method: http.MethodPost, Path: prefix + "/lessons", WantStatus: http.StatusConflict, Body: map[string]interface{}{
			"instructor_id": "{instructor}",
			"lesson_date":   "2027-03-01",
			"start_time":    "10:30",
			"end_time":      "11:30",
			"location":      "smoke-studio-" + suffix,
		}},
		{Name: "check colliding slot", Method: http.MethodPost, Path: prefix + "/lessons/conflicts", WantStatus: http.StatusOK, Body: map[string]interface{}{
			"instructorId": "{instructor}",
			"lessonDate":   "2027-03-01",
			"startTime":    "10:30",
			"endTime":      "11:30",
			"location":     "smoke-studio-" + suffix,
		}},
		{Name: "cancel lesson", Method: http.MethodDelete, Path: prefix + "/lessons/{lesson}", WantStatus: http.StatusNoContent},
		{Name: "deactivate student", Method: http.MethodDelete, Path: prefix + "/students/{student}", WantStatus: http.StatusOK},
		{Name: "deactivate instructor", Method: http.MethodDelete, Path: prefix + "/instructors/{instructor}", WantStatus: http.StatusOK},
	}

	var results []result
	failed := 0
	for _, st := range steps {
		res := runStep(client, base, st, ids)
		if !res.Pass {
			failed++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Failed steps: %d of %d\n", failed, len(steps))
	if failed > 0 {
		os.Exit(1)
	}
}

func runStep(client *http.Client, base string, st step, ids map[string]string) result {
	res := result{Step: st}

	var bodyReader io.Reader
	if st.Body != nil {
		payload, err := json.Marshal(resolveBody(st.Body, ids))
		if err != nil {
			res.Error = fmt.Errorf("marshal body: %w", err)
			return res
		}
		bodyReader = bytes.NewReader(payload)
	}

	url := strings.TrimRight(base, "/") + resolvePath(st.Path, ids)
	req, err := http.NewRequest(st.Method, url, bodyReader)
	if err != nil {
		res.Error = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "smoke")

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Pass = resp.StatusCode == st.WantStatus

	if st.CaptureID != "" && res.Pass {
		id, err := extractID(resp.Body)
		if err != nil {
			res.Pass = false
			res.Error = fmt.Errorf("capture id: %w", err)
			return res
		}
		ids[st.CaptureID] = id
	}
	return res
}

func resolvePath(path string, ids map[string]string) string {
	for key, id := range ids {
		path = strings.ReplaceAll(path, "{"+key+"}", id)
	}
	return path
}

func resolveBody(body interface{}, ids map[string]string) interface{} {
	fields, ok := body.(map[string]interface{})
	if !ok {
		return body
	}
	resolved := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			resolved[k] = resolvePath(s, ids)
			continue
		}
		resolved[k] = v
	}
	return resolved
}

func extractID(body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", err
	}
	id, ok := envelope.Data["id"].(string)
	if !ok || id == "" {
		if lesson, ok := envelope.Data["lesson"].(map[string]interface{}); ok {
			if id, ok := lesson["id"].(string); ok && id != "" {
				return id, nil
			}
		}
		return "", fmt.Errorf("no id in response data")
	}
	return id, nil
}

func printReport(results []result) {
	fmt.Println("Smoke Test Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "PASS"
		if !res.Pass {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s: %s %s\n", status, res.Step.Name, res.Step.Method, res.Step.Path)
		fmt.Printf("  Status: %d (want %d) in %s\n", res.Status, res.Step.WantStatus, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
